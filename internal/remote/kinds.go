package remote

import "fmt"

// Entity kinds this package knows how to converge.
const (
	KindApplication    = "application"
	KindIndexer        = "indexer"
	KindIndexerProxy   = "indexer proxy"
	KindDownloadClient = "download client"
	KindTag            = "tag"
)

// kindSpec is the attribute allowlist for one kind. attrs lists the
// top-level attributes a DesiredEntity may set. fields lists the settings
// field names; nil means the field set is schema-driven and any name is
// accepted (indexer and download-client fields come from the remote's own
// schema endpoint).
type kindSpec struct {
	attrs  map[string]bool
	fields map[string]bool
}

var kinds = map[string]kindSpec{
	KindApplication: {
		attrs:  allow("implementation", "implementationName", "configContract", "enable", "syncLevel"),
		fields: allow("apiKey", "baseUrl", "prowlarrUrl"),
	},
	KindIndexer: {
		attrs: allow(
			"implementation", "implementationName", "configContract", "protocol",
			"indexerUrls", "appProfileId", "priority", "enable",
			"supportsRss", "supportsSearch", "enableRss", "enableSearch",
			"useProxy", "proxy", "proxyId",
		),
		fields: nil,
	},
	KindIndexerProxy: {
		attrs:  allow("implementation", "configContract", "enable"),
		fields: allow("host", "requestTimeout", "proxyType"),
	},
	KindDownloadClient: {
		attrs:  allow("implementation", "implementationName", "configContract", "enable", "protocol", "priority"),
		fields: nil,
	},
	KindTag: {
		attrs:  allow("label"),
		fields: allow(),
	},
}

func allow(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[lowerASCII(n)] = true
	}
	return m
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// Validate checks a DesiredEntity against its kind's allowlist before any
// network call is made.
func Validate(d DesiredEntity) error {
	spec, ok := kinds[d.Kind]
	if !ok {
		return fmt.Errorf("unknown entity kind %q", d.Kind)
	}
	if d.Name == "" {
		return fmt.Errorf("%s entity has no name", d.Kind)
	}
	for attr := range d.Attrs {
		if !spec.attrs[lowerASCII(attr)] {
			return fmt.Errorf("%s %q: attribute %q is not allowed", d.Kind, d.Name, attr)
		}
	}
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("%s %q: settings field with empty name", d.Kind, d.Name)
		}
		if spec.fields != nil && !spec.fields[lowerASCII(f.Name)] {
			return fmt.Errorf("%s %q: settings field %q is not allowed", d.Kind, d.Name, f.Name)
		}
	}
	return nil
}
