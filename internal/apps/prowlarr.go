package apps

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"arrmada/internal/config"
	"arrmada/internal/remote"
	"arrmada/internal/transport"
	"arrmada/pkg/logging"
)

// Prowlarr is the indexer aggregator plus the knowledge of which entities
// to seed in it.
type Prowlarr struct {
	cfg    *config.Config
	apiKey string
	client *transport.Client
	rec    *remote.Reconciler

	proxyBase string
}

// NewProwlarr creates a handle for the aggregator.
func NewProwlarr(cfg *config.Config, apiKey string, client *transport.Client) *Prowlarr {
	return &Prowlarr{cfg: cfg, apiKey: apiKey, client: client, rec: remote.NewReconciler(client)}
}

// URL returns the aggregator's address.
func (p *Prowlarr) URL() string { return p.cfg.Prowlarr.URL }

// APIKey returns the aggregator's API key.
func (p *Prowlarr) APIKey() string { return p.apiKey }

// Arr returns the aggregator as a generic application handle, for the
// operations shared with Sonarr/Radarr (auth, update mechanism).
func (p *Prowlarr) Arr() *Arr {
	return NewArr("Prowlarr", p.cfg.Prowlarr, p.apiKey, p.client)
}

func (p *Prowlarr) endpoint(path string) remote.Endpoint {
	return remote.Endpoint{
		BaseURL: p.cfg.Prowlarr.URL,
		Path:    path,
		APIKey:  p.apiKey,
		Timeout: p.cfg.Prowlarr.RequestTimeout,
	}
}

// IndexerEndpoint is the aggregator's indexer collection.
func (p *Prowlarr) IndexerEndpoint() remote.Endpoint {
	return p.endpoint("/api/v1/indexer")
}

// EnsureTag returns the id of the tag with the given label, creating it
// if needed.
func (p *Prowlarr) EnsureTag(ctx context.Context, label string) (int64, error) {
	ep := p.endpoint("/api/v1/tag")
	resp, err := p.client.Do(ctx, http.MethodGet, ep.CollectionURL(), ep.Header(), nil, ep.Timeout)
	if err != nil {
		return 0, fmt.Errorf("list tags: %w", err)
	}
	if !resp.OK() {
		return 0, transport.Reject(http.MethodGet, ep.CollectionURL(), resp)
	}
	var tags []struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
	}
	if err := resp.DecodeJSON(&tags); err != nil {
		return 0, err
	}
	for _, t := range tags {
		if t.Label == label {
			return t.ID, nil
		}
	}

	resp, err = p.client.DoJSON(ctx, http.MethodPost, ep.CollectionURL(), ep.Header(), map[string]string{"label": label}, ep.Timeout)
	if err != nil {
		return 0, fmt.Errorf("create tag %q: %w", label, err)
	}
	if !resp.OK() {
		return 0, transport.Reject(http.MethodPost, ep.CollectionURL(), resp)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := resp.DecodeJSON(&created); err != nil {
		return 0, err
	}
	logging.Info(subsystem, "Created tag %q (id=%d)", label, created.ID)
	return created.ID, nil
}

// EnsureApplication registers a PVR application in the aggregator (or
// converges an existing registration) with full sync enabled and the
// in-docker URLs sibling containers need.
func (p *Prowlarr) EnsureApplication(ctx context.Context, app *Arr) (remote.ChangeRecord, error) {
	desired := remote.DesiredEntity{
		Kind:           remote.KindApplication,
		Name:           app.Name,
		Implementation: app.Name,
		Attrs: map[string]interface{}{
			"implementation": app.Name,
			"configContract": app.Name + "Settings",
			"enable":         true,
			"syncLevel":      "fullSync",
		},
		Fields: []remote.Field{
			{Name: "apiKey", Value: app.APIKey()},
			{Name: "baseUrl", Value: app.DockerURL()},
			{Name: "prowlarrUrl", Value: p.cfg.Prowlarr.DockerURL},
		},
	}
	_, rec, err := p.rec.Reconcile(ctx, p.endpoint("/api/v1/applications"), desired, remote.IdentityRule{})
	return rec, err
}

// proxyEndpointBase finds the proxy collection path; the route moved from
// /api/v1/indexerproxy to /api/v1/proxy between builds, so probe both.
func (p *Prowlarr) proxyEndpointBase(ctx context.Context) string {
	if p.proxyBase != "" {
		return p.proxyBase
	}
	for _, base := range []string{"/api/v1/indexerproxy", "/api/v1/proxy"} {
		ep := p.endpoint(base)
		resp, err := p.client.Do(ctx, http.MethodGet, ep.CollectionURL(), ep.Header(), nil, ep.Timeout)
		if err != nil {
			continue
		}
		if resp.Status == http.StatusOK || resp.Status == http.StatusNoContent || resp.Status == http.StatusMethodNotAllowed {
			p.proxyBase = base
			return base
		}
	}
	logging.Warn(subsystem, "Could not determine proxy endpoint, assuming /api/v1/indexerproxy")
	p.proxyBase = "/api/v1/indexerproxy"
	return p.proxyBase
}

// EnsureProxy converges the FlareSolverr indexer proxy and returns its
// id, or 0 when proxy creation is disabled.
func (p *Prowlarr) EnsureProxy(ctx context.Context, tagID int64) (int64, remote.ChangeRecord, error) {
	if !p.cfg.Proxy.Create {
		logging.Info(subsystem, "Proxy creation disabled")
		return 0, remote.ChangeRecord{Description: "proxy creation disabled"}, nil
	}

	desired := remote.DesiredEntity{
		Kind:           remote.KindIndexerProxy,
		Name:           p.cfg.Proxy.Name,
		Implementation: "FlareSolverr",
		Attrs: map[string]interface{}{
			"implementation": "FlareSolverr",
			"configContract": "FlareSolverrSettings",
			"enable":         true,
		},
		Fields: []remote.Field{
			{Name: "host", Value: p.cfg.Proxy.DockerURL},
			{Name: "requestTimeout", Value: 60},
			{Name: "proxyType", Value: "FlareSolverr"},
		},
	}
	if tagID != 0 {
		desired.Tags = []int64{tagID}
	}

	ep := p.endpoint(p.proxyEndpointBase(ctx))
	entity, rec, err := p.rec.Reconcile(ctx, ep, desired, remote.IdentityRule{})
	if err != nil {
		return 0, rec, err
	}
	return entity.ID, rec, nil
}

// IndexerDefinitions fetches the aggregator's indexer schema catalog.
func (p *Prowlarr) IndexerDefinitions(ctx context.Context) ([]IndexerDefinition, error) {
	ep := p.endpoint("/api/v1/indexer/schema")
	resp, err := p.client.Do(ctx, http.MethodGet, ep.CollectionURL(), ep.Header(), nil, ep.Timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch indexer definitions: %w", err)
	}
	if !resp.OK() {
		return nil, transport.Reject(http.MethodGet, ep.CollectionURL(), resp)
	}
	var defs []IndexerDefinition
	if err := resp.DecodeJSON(&defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// findDefinition matches a configured indexer name against the catalog:
// exact canonical match on name or implementation name first, then
// containment, first catalog entry winning.
func findDefinition(defs []IndexerDefinition, name string) *IndexerDefinition {
	wanted := canonName(name)
	for i := range defs {
		if canonName(defs[i].Name) == wanted || canonName(defs[i].ImplementationName) == wanted {
			return &defs[i]
		}
	}
	for i := range defs {
		if strings.Contains(canonName(defs[i].Name), wanted) ||
			strings.Contains(canonName(defs[i].ImplementationName), wanted) {
			return &defs[i]
		}
	}
	return nil
}

func canonName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// desiredIndexer renders one catalog definition as a reconcilable
// entity: schema defaults seed every field, configured per-indexer
// overrides win over them, and usenet definitions fall back to the
// shared provider credentials for apiKey/baseUrl.
func (p *Prowlarr) desiredIndexer(def *IndexerDefinition, tagID, proxyID int64) remote.DesiredEntity {
	name := def.DisplayName()
	useProxy := proxyID != 0 && !def.IsUsenet()

	attrs := map[string]interface{}{
		"implementation":     def.Implementation,
		"implementationName": def.ImplementationName,
		"configContract":     def.ConfigContract,
		"protocol":           def.Protocol,
		"indexerUrls":        def.IndexerUrls,
		"appProfileId":       1,
		"priority":           25,
		"enable":             true,
		"supportsRss":        true,
		"supportsSearch":     true,
		"enableRss":          true,
		"enableSearch":       true,
		"useProxy":           useProxy,
	}
	if useProxy {
		attrs["proxy"] = proxyID
		attrs["proxyId"] = proxyID
	}

	fields := make([]remote.Field, 0, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			continue
		}
		value := f.Seed()
		if ov, ok := p.cfg.IndexerOverride(name, f.Name); ok {
			value = ov
		} else if def.IsUsenet() {
			switch {
			case strings.EqualFold(f.Name, "apiKey") && p.cfg.Usenet.DefaultAPIKey != "" && value == nil:
				value = p.cfg.Usenet.DefaultAPIKey
			case strings.EqualFold(f.Name, "baseUrl") && p.cfg.Usenet.DefaultBaseURL != "" && value == nil:
				value = p.cfg.Usenet.DefaultBaseURL
			}
		}
		fields = append(fields, remote.Field{Name: f.Name, Value: value})
	}

	desired := remote.DesiredEntity{
		Kind:           remote.KindIndexer,
		Name:           name,
		Implementation: def.Implementation,
		Attrs:          attrs,
		Fields:         fields,
	}
	if tagID != 0 {
		desired.Tags = []int64{tagID}
	}
	return desired
}

// EnsureIndexer converges one configured indexer against the aggregator,
// resolving it through the schema catalog first.
func (p *Prowlarr) EnsureIndexer(ctx context.Context, defs []IndexerDefinition, name string, tagID, proxyID int64) (remote.ChangeRecord, error) {
	def := findDefinition(defs, name)
	if def == nil {
		return remote.ChangeRecord{}, fmt.Errorf("no indexer definition found for %q", name)
	}

	desired := p.desiredIndexer(def, tagID, proxyID)
	_, rec, err := p.rec.Reconcile(ctx, p.IndexerEndpoint(), desired, remote.IdentityRule{Fuzzy: true})
	return rec, err
}

// SetIndexerPriorities puts usenet indexers ahead of torrent indexers
// (lower number wins).
func (p *Prowlarr) SetIndexerPriorities(ctx context.Context, usenetPrio, torrentPrio int) error {
	ep := p.IndexerEndpoint()
	indexers, err := p.rec.List(ctx, ep)
	if err != nil {
		return fmt.Errorf("list indexers: %w", err)
	}

	for _, idx := range indexers {
		proto, _ := idx.Attr("protocol")
		target := torrentPrio
		if strings.EqualFold(fmt.Sprint(proto), "usenet") {
			target = usenetPrio
		}
		rec, err := p.rec.UpdateAttrs(ctx, ep, idx, remote.KindIndexer, map[string]interface{}{"priority": target})
		if err != nil {
			logging.Warn(subsystem, "Could not set priority for indexer %q: %v", idx.Name, err)
			continue
		}
		if rec.Changed {
			logging.Info(subsystem, "Indexer %q priority set to %d (%v)", idx.Name, target, proto)
		}
	}
	return nil
}

// HasUsenetIndexer reports whether any enabled usenet indexer exists.
func (p *Prowlarr) HasUsenetIndexer(ctx context.Context) bool {
	return HasUsenetIndexer(ctx, p.client, p.IndexerEndpoint())
}
