package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrmada/internal/transport"
)

// fakeCollection is an in-memory *arr-style collection endpoint: GET
// lists, POST creates (rejecting duplicate names), PUT /{id} replaces.
type fakeCollection struct {
	mu     sync.Mutex
	items  []map[string]interface{}
	nextID int64

	gets, posts, puts int
	rejectCreateWith  int    // if non-zero, fail the first POST with this status
	rejectBody        string // body for the injected rejection
}

func (f *fakeCollection) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodGet:
			f.gets++
			json.NewEncoder(w).Encode(f.items)

		case r.Method == http.MethodPost:
			f.posts++
			if f.rejectCreateWith != 0 {
				status, body := f.rejectCreateWith, f.rejectBody
				f.rejectCreateWith = 0
				w.WriteHeader(status)
				w.Write([]byte(body))
				return
			}
			var item map[string]interface{}
			json.NewDecoder(r.Body).Decode(&item)
			name, _ := item["name"].(string)
			for _, existing := range f.items {
				if en, _ := existing["name"].(string); strings.EqualFold(en, name) {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(`[{"errorMessage":"Should be unique"}]`))
					return
				}
			}
			f.nextID++
			item["id"] = float64(f.nextID)
			f.items = append(f.items, item)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(item)

		case r.Method == http.MethodPut:
			f.puts++
			var item map[string]interface{}
			json.NewDecoder(r.Body).Decode(&item)
			id, _ := item["id"].(float64)
			for i, existing := range f.items {
				if existing["id"] == id {
					f.items[i] = item
					json.NewEncoder(w).Encode(item)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)

		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func (f *fakeCollection) add(item map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	item["id"] = float64(f.nextID)
	f.items = append(f.items, item)
}

func testSetup(t *testing.T, f *fakeCollection) (*Reconciler, Endpoint) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	ep := Endpoint{BaseURL: srv.URL, Path: "/api/v1/indexer", APIKey: "k", Timeout: 5 * time.Second}
	return NewReconciler(transport.New(1, 0)), ep
}

func TestReconcileCreatesWhenAbsent(t *testing.T) {
	f := &fakeCollection{}
	r, ep := testSetup(t, f)

	desired := DesiredEntity{
		Kind: KindIndexer,
		Name: "ExampleTracker",
		Attrs: map[string]interface{}{
			"priority": 25,
			"enable":   true,
		},
		Fields: []Field{{Name: "apiUrl", Value: "http://x"}},
	}

	got, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1, f.posts)
	assert.Equal(t, 0, f.puts)

	// Same input against the now-populated remote: zero writes.
	got, rec, err = r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, 1, f.posts)
	assert.Equal(t, 0, f.puts)
}

func TestReconcileUpdatesOnlyWhenDifferent(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{
		"name":     "ExampleTracker",
		"priority": float64(50),
		"enable":   true,
		"added":    "2024-01-01", // remote bookkeeping, must survive the merge
		"fields": []interface{}{
			map[string]interface{}{"name": "apiUrl", "value": "http://old", "type": "textbox"},
		},
	})
	r, ep := testSetup(t, f)

	desired := DesiredEntity{
		Kind:   KindIndexer,
		Name:   "ExampleTracker",
		Attrs:  map[string]interface{}{"priority": 25},
		Fields: []Field{{Name: "apiUrl", Value: "http://x"}},
	}

	got, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.Equal(t, 1, f.puts)

	v, _ := got.Attr("priority")
	assert.Equal(t, 25, int(v.(float64)))
	v, _ = got.Attr("added")
	assert.Equal(t, "2024-01-01", v)
	fv, ok := got.Field("apiUrl")
	require.True(t, ok)
	assert.Equal(t, "http://x", fv)

	// The untouched field attribute survives too.
	fields, _ := got.Attr("fields")
	assert.Equal(t, "textbox", fields.([]interface{})[0].(map[string]interface{})["type"])

	_, rec, err = r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, 1, f.puts)
}

func TestReconcileUnionsTags(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{
		"name": "ExampleTracker",
		"tags": []interface{}{float64(1), float64(2)},
	})
	r, ep := testSetup(t, f)

	// Desired not mentioning tags keeps {1,2}.
	desired := DesiredEntity{Kind: KindIndexer, Name: "ExampleTracker"}
	got, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, []int64{1, 2}, got.Tags())

	// Desired tag {3} unions to {1,2,3}.
	desired.Tags = []int64{3}
	got, rec, err = r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.Equal(t, []int64{1, 2, 3}, got.Tags())

	// A tag already present is not a change.
	desired.Tags = []int64{2}
	_, rec, err = r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
}

func TestReconcileMatchesByImplementation(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{"name": "My Sonarr", "implementation": "Sonarr"})
	r, ep := testSetup(t, f)

	desired := DesiredEntity{Kind: KindApplication, Name: "Sonarr", Implementation: "Sonarr"}
	got, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, "My Sonarr", got.Name)
	assert.Equal(t, 0, f.posts)
}

func TestReconcileFuzzyMatch(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{"name": "The Pirate Bay"})
	r, ep := testSetup(t, f)

	desired := DesiredEntity{Kind: KindIndexer, Name: "piratebay"}

	// Without the fuzzy rule this is a create.
	_, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.Equal(t, 1, f.posts)

	f2 := &fakeCollection{}
	f2.add(map[string]interface{}{"name": "The Pirate Bay"})
	r2, ep2 := testSetup(t, f2)

	_, rec, err = r2.Reconcile(context.Background(), ep2, desired, IdentityRule{Fuzzy: true})
	require.NoError(t, err)
	assert.False(t, rec.Changed)
	assert.Equal(t, 0, f2.posts)
}

func TestReconcileRecoversFromDuplicateName(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{"name": "Sonarr", "syncLevel": "fullSync"})
	r, ep := testSetup(t, f)

	// The entity exists but the first listing misses it, so the create
	// races and gets the uniqueness rejection; the reconciler must
	// re-list and converge on the winner.
	desired := DesiredEntity{
		Kind:  KindApplication,
		Name:  "sonarr", // case differs from the listing, forcing the create path
		Attrs: map[string]interface{}{"syncLevel": "fullSync"},
	}

	// Force a miss on the first match by emptying the first listing.
	items := f.items
	f.items = nil
	first := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && first {
			first = false
			w.Write([]byte("[]"))
			return
		}
		f.items = items
		f.handler().ServeHTTP(w, req)
	}))
	defer srv.Close()
	ep.BaseURL = srv.URL

	got, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.False(t, rec.Changed, "winner already matches the desired state")
	assert.Equal(t, "Sonarr", got.Name)
}

func TestReconcileReportsRejection(t *testing.T) {
	f := &fakeCollection{rejectCreateWith: http.StatusBadRequest, rejectBody: `{"error":"folder not writable"}`}
	r, ep := testSetup(t, f)

	desired := DesiredEntity{Kind: KindIndexer, Name: "X"}
	_, _, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.Error(t, err)

	var re *ReconcileError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KindIndexer, re.Kind)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Contains(t, re.Body, "not writable")
	assert.False(t, transport.IsTransportError(err))
}

func TestReconcileListFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := NewReconciler(transport.New(1, 0))
	ep := Endpoint{BaseURL: srv.URL, Path: "/api/v1/indexer", APIKey: "k", Timeout: time.Second}
	_, _, err := r.Reconcile(context.Background(), ep, DesiredEntity{Kind: KindIndexer, Name: "X"}, IdentityRule{})
	require.Error(t, err)

	var re *ReconcileError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "list", re.Op)
}

func TestValidateRejectsUnknownAttributes(t *testing.T) {
	tests := []struct {
		name    string
		desired DesiredEntity
		wantErr string
	}{
		{
			name:    "unknown kind",
			desired: DesiredEntity{Kind: "gadget", Name: "x"},
			wantErr: "unknown entity kind",
		},
		{
			name:    "missing name",
			desired: DesiredEntity{Kind: KindIndexer},
			wantErr: "no name",
		},
		{
			name: "disallowed attribute",
			desired: DesiredEntity{
				Kind: KindApplication, Name: "Sonarr",
				Attrs: map[string]interface{}{"bogusAttr": 1},
			},
			wantErr: "not allowed",
		},
		{
			name: "disallowed field",
			desired: DesiredEntity{
				Kind: KindIndexerProxy, Name: "FlareSolverr",
				Fields: []Field{{Name: "bogus", Value: 1}},
			},
			wantErr: "not allowed",
		},
		{
			name: "schema-driven fields accepted",
			desired: DesiredEntity{
				Kind: KindIndexer, Name: "X",
				Fields: []Field{{Name: "anythingGoes", Value: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.desired)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValuesEqualCanonicalization(t *testing.T) {
	assert.True(t, valuesEqual(25, float64(25)))
	assert.True(t, valuesEqual(map[string]interface{}{"a": 1}, map[string]interface{}{"a": float64(1)}))
	assert.True(t, valuesEqual([]int64{1, 2}, []interface{}{float64(1), float64(2)}))
	// A numeric string is not a number.
	assert.False(t, valuesEqual("25", 25))
	assert.False(t, valuesEqual(nil, 0))
}

func TestCanon(t *testing.T) {
	assert.Equal(t, "thepiratebay", canon("The Pirate Bay"))
	assert.Equal(t, "1337x", canon("1337x"))
	assert.Equal(t, canon("Torrent-Galaxy_Clone"), canon("torrentgalaxyclone"))
	assert.Equal(t, "", canon("---"))
}

func TestFieldDiffNamesInDescription(t *testing.T) {
	f := &fakeCollection{}
	f.add(map[string]interface{}{
		"name":   "X",
		"fields": []interface{}{map[string]interface{}{"name": "apiKey", "value": "old"}},
	})
	r, ep := testSetup(t, f)

	desired := DesiredEntity{Kind: KindIndexer, Name: "X", Fields: []Field{{Name: "apiKey", Value: "new"}}}
	_, rec, err := r.Reconcile(context.Background(), ep, desired, IdentityRule{})
	require.NoError(t, err)
	assert.True(t, rec.Changed)
	assert.True(t, strings.Contains(rec.Description, "fields.apiKey"), rec.Description)
}
