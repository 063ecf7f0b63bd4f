package apps

import (
	"encoding/json"
	"strings"
)

// SchemaField is one field of a remote schema definition. Value and
// DefaultValue stay raw so "field present with null" and "field absent"
// remain distinguishable.
type SchemaField struct {
	Name         string          `json:"name"`
	Value        json.RawMessage `json:"value"`
	DefaultValue json.RawMessage `json:"defaultValue"`
}

// Seed returns the value a fresh entity should carry for this field: the
// schema's pre-set value if it has one, otherwise its default.
func (f SchemaField) Seed() interface{} {
	if v, ok := decodeRaw(f.Value); ok {
		return v
	}
	v, _ := decodeRaw(f.DefaultValue)
	return v
}

func decodeRaw(raw json.RawMessage) (interface{}, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false
	}
	return v, true
}

// IndexerDefinition is one entry of the aggregator's indexer schema
// catalog.
type IndexerDefinition struct {
	Name               string        `json:"name"`
	ImplementationName string        `json:"implementationName"`
	Implementation     string        `json:"implementation"`
	ConfigContract     string        `json:"configContract"`
	Protocol           string        `json:"protocol"`
	IndexerUrls        []string      `json:"indexerUrls"`
	Fields             []SchemaField `json:"fields"`
}

// DisplayName is the name a created indexer will carry.
func (d IndexerDefinition) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ImplementationName
}

// IsUsenet reports whether the definition is a usenet indexer.
func (d IndexerDefinition) IsUsenet() bool {
	return strings.EqualFold(d.Protocol, "usenet") ||
		strings.Contains(strings.ToLower(d.Implementation), "newznab")
}

// FieldNames returns the definition's schema field names.
func (d IndexerDefinition) FieldNames() []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name != "" {
			out = append(out, f.Name)
		}
	}
	return out
}

// ClientSchema is one download-client schema definition.
type ClientSchema struct {
	Implementation     string        `json:"implementation"`
	ImplementationName string        `json:"implementationName"`
	ConfigContract     string        `json:"configContract"`
	Fields             []SchemaField `json:"fields"`
}

// HasField reports whether the schema defines a field, case-insensitively.
func (s *ClientSchema) HasField(name string) bool {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return true
		}
	}
	return false
}
