package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Endpoint identifies one remote collection. It is stateless and built
// per call.
type Endpoint struct {
	BaseURL string
	Path    string
	APIKey  string
	Timeout time.Duration
}

// CollectionURL returns the URL for list and create calls.
func (e Endpoint) CollectionURL() string {
	return strings.TrimRight(e.BaseURL, "/") + e.Path
}

// ItemURL returns the URL for replacing one entity.
func (e Endpoint) ItemURL(id int64) string {
	return fmt.Sprintf("%s/%d", e.CollectionURL(), id)
}

// Header returns the authentication and content-type headers for calls
// against this endpoint.
func (e Endpoint) Header() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", e.APIKey)
	h.Set("Content-Type", "application/json")
	return h
}

// Field is one named settings field of an entity.
type Field struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// DesiredEntity is the logical resource to converge. Name and
// Implementation identify it; Attrs are top-level attributes to enforce,
// Fields the settings fields, Tags the tag ids to union into the entity.
type DesiredEntity struct {
	Kind           string
	Name           string
	Implementation string
	Attrs          map[string]interface{}
	Fields         []Field
	Tags           []int64
}

// RemoteEntity is the decoded current state of one collection item. The
// full payload is kept so an update can send the entity back without
// dropping attributes this package does not model.
type RemoteEntity struct {
	ID             int64
	Name           string
	Implementation string

	raw map[string]interface{}
}

func newRemoteEntity(raw map[string]interface{}) RemoteEntity {
	e := RemoteEntity{raw: raw}
	if id, ok := raw["id"].(float64); ok {
		e.ID = int64(id)
	}
	e.Name, _ = raw["name"].(string)
	e.Implementation, _ = raw["implementation"].(string)
	return e
}

// Attr returns a top-level attribute of the entity.
func (e RemoteEntity) Attr(name string) (interface{}, bool) {
	v, ok := e.raw[name]
	return v, ok
}

// Fields returns the entity's settings fields.
func (e RemoteEntity) Fields() []Field {
	items, _ := e.raw["fields"].([]interface{})
	out := make([]Field, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			continue
		}
		out = append(out, Field{Name: name, Value: m["value"]})
	}
	return out
}

// Field returns one settings field value by name, case-insensitively.
func (e RemoteEntity) Field(name string) (interface{}, bool) {
	for _, f := range e.Fields() {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return nil, false
}

// Tags returns the entity's tag ids.
func (e RemoteEntity) Tags() []int64 {
	items, _ := e.raw["tags"].([]interface{})
	out := make([]int64, 0, len(items))
	for _, item := range items {
		if id, ok := item.(float64); ok {
			out = append(out, int64(id))
		}
	}
	return out
}

func decodeCollection(body []byte) ([]RemoteEntity, error) {
	var items []map[string]interface{}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	out := make([]RemoteEntity, 0, len(items))
	for _, item := range items {
		out = append(out, newRemoteEntity(item))
	}
	return out, nil
}

// ChangeRecord reports whether a reconcile operation wrote anything, and
// what it did. The orchestrator uses it to decide whether a downstream
// restart is needed.
type ChangeRecord struct {
	Changed     bool
	Description string
}

func unchanged(desc string) ChangeRecord {
	return ChangeRecord{Changed: false, Description: desc}
}

func changed(desc string) ChangeRecord {
	return ChangeRecord{Changed: true, Description: desc}
}

// ReconcileError is a remote rejection or listing failure during one
// reconcile call, carrying enough context to report the step.
type ReconcileError struct {
	Kind   string
	Name   string
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *ReconcileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %q: %s failed: %v", e.Kind, e.Name, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %s rejected with status %d: %s", e.Kind, e.Name, e.Op, e.Status, e.Body)
}

func (e *ReconcileError) Unwrap() error {
	return e.Err
}
