package apps

import (
	"context"
	"fmt"
	"strings"

	"arrmada/internal/remote"
	"arrmada/internal/transport"
	"arrmada/pkg/logging"
)

// QBittorrentClientSpec holds the settings for registering qBittorrent as
// a download client.
type QBittorrentClientSpec struct {
	Name     string
	Host     string
	Port     int
	Username string
	Password string
	Category string
	UseSSL   bool
}

// desiredQBittorrentClient renders the spec as a reconcilable entity.
// Torrents rank below usenet, so the client sits at priority 2.
func desiredQBittorrentClient(spec QBittorrentClientSpec) remote.DesiredEntity {
	fields := []remote.Field{
		{Name: "host", Value: spec.Host},
		{Name: "port", Value: spec.Port},
		{Name: "useSsl", Value: spec.UseSSL},
		{Name: "urlBase", Value: ""},
		{Name: "username", Value: spec.Username},
		{Name: "password", Value: spec.Password},
	}
	if spec.Category != "" {
		fields = append(fields, remote.Field{Name: "category", Value: spec.Category})
	}
	return remote.DesiredEntity{
		Kind:           remote.KindDownloadClient,
		Name:           spec.Name,
		Implementation: "QBittorrent",
		Attrs: map[string]interface{}{
			"enable":             true,
			"protocol":           "torrent",
			"priority":           2,
			"configContract":     "QBittorrentSettings",
			"implementation":     "QBittorrent",
			"implementationName": "qBittorrent",
		},
		Fields: fields,
	}
}

// EnsureQBittorrentClient converges the qBittorrent download client entry.
func (a *Arr) EnsureQBittorrentClient(ctx context.Context, spec QBittorrentClientSpec) (remote.ChangeRecord, error) {
	_, rec, err := a.rec.Reconcile(ctx, a.Endpoint("/downloadclient"), desiredQBittorrentClient(spec), remote.IdentityRule{})
	return rec, err
}

// SABnzbdClientSpec holds the settings for registering SABnzbd as a
// download client.
type SABnzbdClientSpec struct {
	Name     string
	Host     string
	Port     int
	APIKey   string
	Category string
	UseSSL   bool
	Username string
	Password string
}

// desiredSABnzbdClient renders the spec as a reconcilable entity. When a
// schema was fetched, its field list seeds defaults for everything the
// spec does not set, and its field names pick the category key; without
// one, a fixed field list with the name heuristic is the fallback.
func desiredSABnzbdClient(spec SABnzbdClientSpec, schema *ClientSchema, appName string) remote.DesiredEntity {
	values := map[string]interface{}{
		"host":     spec.Host,
		"port":     spec.Port,
		"useSsl":   spec.UseSSL,
		"urlBase":  "",
		"apiKey":   spec.APIKey,
		"username": spec.Username,
		"password": spec.Password,
	}
	if spec.Category != "" {
		values[categoryFieldName(schema, appName)] = spec.Category
	}

	attrs := map[string]interface{}{
		"enable":             true,
		"protocol":           "usenet",
		"priority":           1,
		"configContract":     "SABnzbdSettings",
		"implementation":     "SABnzbd",
		"implementationName": "SABnzbd",
	}

	var fields []remote.Field
	if schema != nil {
		if schema.ConfigContract != "" {
			attrs["configContract"] = schema.ConfigContract
		}
		if schema.ImplementationName != "" {
			attrs["implementationName"] = schema.ImplementationName
		}
		// Schema order, desired values where we have them, schema
		// defaults everywhere else.
		for _, f := range schema.Fields {
			if f.Name == "" {
				continue
			}
			if v, ok := lookupValue(values, f.Name); ok {
				fields = append(fields, remote.Field{Name: f.Name, Value: v})
			} else {
				fields = append(fields, remote.Field{Name: f.Name, Value: f.Seed()})
			}
		}
	} else {
		for _, name := range []string{"host", "port", "useSsl", "urlBase", "apiKey", "username", "password"} {
			fields = append(fields, remote.Field{Name: name, Value: values[name]})
		}
		if spec.Category != "" {
			cat := categoryFieldName(nil, appName)
			fields = append(fields, remote.Field{Name: cat, Value: spec.Category})
		}
	}

	return remote.DesiredEntity{
		Kind:           remote.KindDownloadClient,
		Name:           spec.Name,
		Implementation: "SABnzbd",
		Attrs:          attrs,
		Fields:         fields,
	}
}

func lookupValue(values map[string]interface{}, name string) (interface{}, bool) {
	for k, v := range values {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// DownloadClientSchema fetches the schema definition for one client
// implementation, or nil when the endpoint is unavailable on this build.
func (a *Arr) DownloadClientSchema(ctx context.Context, implementation string) *ClientSchema {
	var schemas []ClientSchema
	if err := a.getJSON(ctx, "/downloadclient/schema", &schemas); err != nil {
		logging.Warn(subsystem, "Could not fetch download client schema from %s: %v", a.Name, err)
		return nil
	}
	for i := range schemas {
		if schemas[i].Implementation == implementation {
			return &schemas[i]
		}
	}
	return nil
}

// EnsureSABnzbdClient converges the SABnzbd download client entry.
func (a *Arr) EnsureSABnzbdClient(ctx context.Context, spec SABnzbdClientSpec) (remote.ChangeRecord, error) {
	schema := a.DownloadClientSchema(ctx, "SABnzbd")
	desired := desiredSABnzbdClient(spec, schema, a.Name)
	_, rec, err := a.rec.Reconcile(ctx, a.Endpoint("/downloadclient"), desired, remote.IdentityRule{})
	return rec, err
}

// HasUsenetIndexer reports whether the aggregator currently has an
// enabled usenet indexer; protocol tuning keys off this.
func HasUsenetIndexer(ctx context.Context, client *transport.Client, ep remote.Endpoint) bool {
	rec := remote.NewReconciler(client)
	indexers, err := rec.List(ctx, ep)
	if err != nil {
		logging.Warn(subsystem, "Could not list indexers: %v", err)
		return false
	}
	for _, idx := range indexers {
		enabled, _ := idx.Attr("enable")
		proto, _ := idx.Attr("protocol")
		if enabled == true && strings.EqualFold(fmt.Sprint(proto), "usenet") {
			return true
		}
	}
	return false
}
