package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"arrmada/internal/transport"
	"arrmada/pkg/logging"
)

const subsystem = "Reconcile"

// Reconciler converges desired entities against remote collections. All
// network traffic goes through the shared transport client, which owns
// the retry policy for transient connection failures.
type Reconciler struct {
	client *transport.Client
}

// NewReconciler creates a Reconciler on top of a transport client.
func NewReconciler(client *transport.Client) *Reconciler {
	return &Reconciler{client: client}
}

// List fetches the current collection. The remote is the source of truth,
// so results are never cached across calls.
func (r *Reconciler) List(ctx context.Context, ep Endpoint) ([]RemoteEntity, error) {
	resp, err := r.client.Do(ctx, http.MethodGet, ep.CollectionURL(), ep.Header(), nil, ep.Timeout)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, transport.Reject(http.MethodGet, ep.CollectionURL(), resp)
	}
	return decodeCollection(resp.Body)
}

// Reconcile converges one desired entity. It lists the collection,
// matches by identity, and either updates the matched entity (only when
// something actually differs) or creates a new one. The returned
// RemoteEntity reflects the state after the call.
func (r *Reconciler) Reconcile(ctx context.Context, ep Endpoint, desired DesiredEntity, rule IdentityRule) (RemoteEntity, ChangeRecord, error) {
	if err := Validate(desired); err != nil {
		return RemoteEntity{}, ChangeRecord{}, err
	}

	existing, err := r.List(ctx, ep)
	if err != nil {
		return RemoteEntity{}, ChangeRecord{}, r.wrap(desired, "list", err)
	}

	if current := match(existing, desired, rule); current != nil {
		return r.update(ctx, ep, desired, *current)
	}
	return r.create(ctx, ep, desired, rule)
}

// UpdateAttrs merges attribute changes into an already-listed entity and
// writes it back only when something differs. It skips the list-and-match
// step, for callers iterating a collection they just fetched.
func (r *Reconciler) UpdateAttrs(ctx context.Context, ep Endpoint, current RemoteEntity, kind string, attrs map[string]interface{}) (ChangeRecord, error) {
	desired := DesiredEntity{Kind: kind, Name: current.Name, Attrs: attrs}
	_, rec, err := r.update(ctx, ep, desired, current)
	return rec, err
}

func (r *Reconciler) update(ctx context.Context, ep Endpoint, desired DesiredEntity, current RemoteEntity) (RemoteEntity, ChangeRecord, error) {
	merged, diff := merge(current, desired)
	if len(diff) == 0 {
		logging.Debug(subsystem, "%s %q already converged (id=%d)", desired.Kind, desired.Name, current.ID)
		return current, unchanged(fmt.Sprintf("%s %q already converged", desired.Kind, desired.Name)), nil
	}

	logging.Info(subsystem, "Updating %s %q (id=%d, diff: %s)",
		desired.Kind, desired.Name, current.ID, strings.Join(diff, ", "))
	resp, err := r.client.DoJSON(ctx, http.MethodPut, ep.ItemURL(current.ID), ep.Header(), merged, ep.Timeout)
	if err != nil {
		return RemoteEntity{}, ChangeRecord{}, r.wrap(desired, "update", err)
	}
	if !resp.OK() {
		return RemoteEntity{}, ChangeRecord{}, r.reject(desired, "update", resp)
	}

	updated := remoteAfterWrite(resp.Body, merged)
	return updated, changed(fmt.Sprintf("%s %q updated (%s)", desired.Kind, desired.Name, strings.Join(diff, ", "))), nil
}

func (r *Reconciler) create(ctx context.Context, ep Endpoint, desired DesiredEntity, rule IdentityRule) (RemoteEntity, ChangeRecord, error) {
	payload := buildCreatePayload(desired)

	logging.Info(subsystem, "Creating %s %q", desired.Kind, desired.Name)
	resp, err := r.client.DoJSON(ctx, http.MethodPost, ep.CollectionURL(), ep.Header(), payload, ep.Timeout)
	if err != nil {
		return RemoteEntity{}, ChangeRecord{}, r.wrap(desired, "create", err)
	}

	if resp.OK() {
		var raw map[string]interface{}
		if err := json.Unmarshal(resp.Body, &raw); err != nil {
			return RemoteEntity{}, ChangeRecord{}, r.wrap(desired, "decode create response", err)
		}
		created := newRemoteEntity(raw)
		return created, changed(fmt.Sprintf("%s %q created (id=%d)", desired.Kind, desired.Name, created.ID)), nil
	}

	if isDuplicateName(resp) {
		// Another writer got there first. The entity exists now, so
		// re-list and converge it instead of reporting the race.
		logging.Info(subsystem, "%s %q already exists, updating instead", desired.Kind, desired.Name)
		existing, err := r.List(ctx, ep)
		if err != nil {
			return RemoteEntity{}, ChangeRecord{}, r.wrap(desired, "re-list after duplicate", err)
		}
		if current := match(existing, desired, rule); current != nil {
			return r.update(ctx, ep, desired, *current)
		}
	}

	return RemoteEntity{}, ChangeRecord{}, r.reject(desired, "create", resp)
}

// isDuplicateName recognizes the remote's "name must be unique" rejection:
// a 409, or a 400 whose body says the value should be unique.
func isDuplicateName(resp transport.Response) bool {
	if resp.Status == http.StatusConflict {
		return true
	}
	return resp.Status == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(string(resp.Body)), "should be unique")
}

// merge overlays the desired state on the current remote payload and
// returns the merged object with the list of changed attribute names.
// The remote's id, name, and any attribute not mentioned by desired stay
// exactly as the remote reported them.
func merge(current RemoteEntity, desired DesiredEntity) (map[string]interface{}, []string) {
	out := make(map[string]interface{}, len(current.raw))
	for k, v := range current.raw {
		out[k] = v
	}

	var diff []string
	for attr, want := range desired.Attrs {
		if !valuesEqual(out[attr], want) {
			out[attr] = want
			diff = append(diff, attr)
		}
	}

	if len(desired.Fields) > 0 {
		fields, fieldDiff := mergeFields(current, desired.Fields)
		if len(fieldDiff) > 0 {
			out["fields"] = fields
			diff = append(diff, fieldDiff...)
		}
	}

	if len(desired.Tags) > 0 {
		tags, tagsChanged := unionTags(current.Tags(), desired.Tags)
		if tagsChanged {
			out["tags"] = tags
			diff = append(diff, "tags")
		}
	}

	return out, diff
}

// mergeFields merges desired settings fields into the remote's field list
// by name: existing entries keep their position and extra attributes,
// unknown desired fields are appended.
func mergeFields(current RemoteEntity, desired []Field) ([]interface{}, []string) {
	existing, _ := current.raw["fields"].([]interface{})
	out := make([]interface{}, len(existing))
	copy(out, existing)

	index := make(map[string]int, len(out))
	for i, item := range out {
		if m, ok := item.(map[string]interface{}); ok {
			if name, ok := m["name"].(string); ok {
				index[strings.ToLower(name)] = i
			}
		}
	}

	var diff []string
	for _, f := range desired {
		if i, ok := index[strings.ToLower(f.Name)]; ok {
			m := out[i].(map[string]interface{})
			if valuesEqual(m["value"], f.Value) {
				continue
			}
			updated := make(map[string]interface{}, len(m))
			for k, v := range m {
				updated[k] = v
			}
			updated["value"] = f.Value
			out[i] = updated
		} else {
			out = append(out, map[string]interface{}{"name": f.Name, "value": f.Value})
		}
		diff = append(diff, "fields."+f.Name)
	}
	return out, diff
}

func unionTags(existing, wanted []int64) ([]interface{}, bool) {
	seen := make(map[int64]bool, len(existing))
	out := make([]interface{}, 0, len(existing)+len(wanted))
	for _, t := range existing {
		seen[t] = true
		out = append(out, float64(t))
	}
	added := false
	for _, t := range wanted {
		if !seen[t] {
			seen[t] = true
			out = append(out, float64(t))
			added = true
		}
	}
	return out, added
}

// buildCreatePayload renders the desired entity as a create request:
// identity, desired attributes, fields, and tags. Schema defaults for
// unspecified fields are the caller's responsibility; builders fold them
// in from the remote's schema endpoint before reconciling.
func buildCreatePayload(desired DesiredEntity) map[string]interface{} {
	payload := make(map[string]interface{}, len(desired.Attrs)+4)
	for k, v := range desired.Attrs {
		payload[k] = v
	}
	payload["name"] = desired.Name
	if desired.Implementation != "" {
		payload["implementation"] = desired.Implementation
	}
	fields := make([]interface{}, 0, len(desired.Fields))
	for _, f := range desired.Fields {
		fields = append(fields, map[string]interface{}{"name": f.Name, "value": f.Value})
	}
	payload["fields"] = fields
	tags := make([]interface{}, 0, len(desired.Tags))
	for _, t := range desired.Tags {
		tags = append(tags, t)
	}
	payload["tags"] = tags
	return payload
}

// remoteAfterWrite prefers the remote's echo of the written entity; some
// builds return an empty body on PUT, in which case the merged payload we
// sent is the best available view.
func remoteAfterWrite(body []byte, sent map[string]interface{}) RemoteEntity {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err == nil && len(raw) > 0 {
		return newRemoteEntity(raw)
	}
	return newRemoteEntity(sent)
}

func (r *Reconciler) wrap(desired DesiredEntity, op string, err error) *ReconcileError {
	return &ReconcileError{Kind: desired.Kind, Name: desired.Name, Op: op, Err: err}
}

func (r *Reconciler) reject(desired DesiredEntity, op string, resp transport.Response) *ReconcileError {
	return &ReconcileError{
		Kind:   desired.Kind,
		Name:   desired.Name,
		Op:     op,
		Status: resp.Status,
		Body:   resp.BodyExcerpt(),
	}
}
