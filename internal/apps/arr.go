package apps

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"arrmada/internal/config"
	"arrmada/internal/remote"
	"arrmada/internal/transport"
	"arrmada/pkg/logging"
)

const subsystem = "Apps"

// Arr is one PVR-style application (Sonarr or Radarr) plus the
// credentials to talk to it.
type Arr struct {
	Name   string
	cfg    config.ArrConfig
	apiKey string
	client *transport.Client
	rec    *remote.Reconciler
}

// NewArr creates a handle for one application.
func NewArr(name string, cfg config.ArrConfig, apiKey string, client *transport.Client) *Arr {
	return &Arr{Name: name, cfg: cfg, apiKey: apiKey, client: client, rec: remote.NewReconciler(client)}
}

// URL returns the address the orchestrator reaches the application at.
func (a *Arr) URL() string { return a.cfg.URL }

// DockerURL returns the address sibling containers use.
func (a *Arr) DockerURL() string { return a.cfg.DockerURL }

// APIKey returns the application's API key.
func (a *Arr) APIKey() string { return a.apiKey }

// Container returns the application's compose service name.
func (a *Arr) Container() string { return a.cfg.Container }

func (a *Arr) api(path string) string {
	return fmt.Sprintf("%s/api/v%d%s", a.cfg.URL, a.cfg.APIVersion, path)
}

func (a *Arr) header() http.Header {
	h := http.Header{}
	h.Set("X-Api-Key", a.apiKey)
	h.Set("Content-Type", "application/json")
	return h
}

// Endpoint builds a reconciler endpoint for one of the application's
// collections.
func (a *Arr) Endpoint(path string) remote.Endpoint {
	return remote.Endpoint{
		BaseURL: a.cfg.URL,
		Path:    fmt.Sprintf("/api/v%d%s", a.cfg.APIVersion, path),
		APIKey:  a.apiKey,
		Timeout: a.cfg.RequestTimeout,
	}
}

func (a *Arr) getJSON(ctx context.Context, path string, v interface{}) error {
	resp, err := a.client.Do(ctx, http.MethodGet, a.api(path), a.header(), nil, a.cfg.RequestTimeout)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return transport.Reject(http.MethodGet, a.api(path), resp)
	}
	return resp.DecodeJSON(v)
}

func (a *Arr) putJSON(ctx context.Context, path string, payload interface{}) error {
	resp, err := a.client.DoJSON(ctx, http.MethodPut, a.api(path), a.header(), payload, a.cfg.RequestTimeout)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return transport.Reject(http.MethodPut, a.api(path), resp)
	}
	return nil
}

// SetUpdateMechanismDocker pins the application's self-update mechanism
// to "docker" so the container image stays the source of truth. Only
// keys the build actually exposes are touched.
func (a *Arr) SetUpdateMechanismDocker(ctx context.Context) (remote.ChangeRecord, error) {
	var cfg map[string]interface{}
	if err := a.getJSON(ctx, "/config/host", &cfg); err != nil {
		return remote.ChangeRecord{}, fmt.Errorf("get host config for %s: %w", a.Name, err)
	}
	id, ok := cfg["id"]
	if !ok {
		return remote.ChangeRecord{}, fmt.Errorf("%s host config has no id", a.Name)
	}

	desired := make(map[string]interface{}, len(cfg))
	for k, v := range cfg {
		desired[k] = v
	}
	setIfPresent(desired, "updateMechanism", "docker")
	setIfPresent(desired, "branch", "stable")
	setIfPresent(desired, "updateAutomatically", false)
	setIfPresent(desired, "automatic", false)

	if equalMaps(desired, cfg) {
		return remote.ChangeRecord{Description: a.Name + " updates already managed by docker"}, nil
	}
	if err := a.putJSON(ctx, fmt.Sprintf("/config/host/%v", id), desired); err != nil {
		return remote.ChangeRecord{}, fmt.Errorf("set update mechanism for %s: %w", a.Name, err)
	}
	logging.Info(subsystem, "Set %s updates to docker", a.Name)
	return remote.ChangeRecord{Changed: true, Description: a.Name + " update mechanism set to docker"}, nil
}

// SetAuth enforces UI authentication. The configured method is tried
// first and "basic" is the fallback for builds that reject forms auth.
// The stored password cannot be read back, so the step is skipped only
// when method, requirement, and username already match.
func (a *Arr) SetAuth(ctx context.Context, auth config.AuthConfig) (remote.ChangeRecord, error) {
	if auth.Username == "" || auth.Password == "" {
		logging.Info(subsystem, "Skipping auth for %s (no credentials configured)", a.Name)
		return remote.ChangeRecord{Description: "no credentials configured"}, nil
	}

	var cfg map[string]interface{}
	if err := a.getJSON(ctx, "/config/host", &cfg); err != nil {
		return remote.ChangeRecord{}, fmt.Errorf("get host config for %s: %w", a.Name, err)
	}

	if cfg["authenticationMethod"] == auth.Method &&
		cfg["authenticationRequired"] == "Enabled" &&
		cfg["username"] == auth.Username {
		return remote.ChangeRecord{Description: a.Name + " auth already configured"}, nil
	}

	methods := []string{auth.Method}
	if auth.Method != "basic" {
		methods = append(methods, "basic")
	}

	var lastErr error
	for _, method := range methods {
		desired := make(map[string]interface{}, len(cfg)+5)
		for k, v := range cfg {
			desired[k] = v
		}
		desired["authenticationMethod"] = method
		desired["authenticationRequired"] = "Enabled"
		desired["username"] = auth.Username
		desired["password"] = auth.Password
		desired["passwordConfirmation"] = auth.Password

		if err := a.putJSON(ctx, "/config/host", desired); err != nil {
			logging.Warn(subsystem, "Auth method %q rejected by %s: %v", method, a.Name, err)
			lastErr = err
			continue
		}
		logging.Info(subsystem, "Set auth for %s (method=%s)", a.Name, method)
		return remote.ChangeRecord{Changed: true, Description: fmt.Sprintf("%s auth set (method=%s)", a.Name, method)}, nil
	}
	return remote.ChangeRecord{}, fmt.Errorf("set auth for %s: %w", a.Name, lastErr)
}

// rootFolderPayloads are the create-request shapes tried in order; older
// builds want a name, others reject extra keys.
func rootFolderPayloads(path string) []map[string]interface{} {
	return []map[string]interface{}{
		{"path": path},
		{"path": path, "name": path},
		{"path": path, "defaultTags": []interface{}{}},
	}
}

// EnsureRootFolder makes sure the application has the given root folder.
func (a *Arr) EnsureRootFolder(ctx context.Context, path string) (remote.ChangeRecord, error) {
	var existing []map[string]interface{}
	if err := a.getJSON(ctx, "/rootfolder", &existing); err != nil {
		return remote.ChangeRecord{}, fmt.Errorf("list root folders for %s: %w", a.Name, err)
	}
	for _, rf := range existing {
		if p, _ := rf["path"].(string); strings.TrimRight(p, "/") == strings.TrimRight(path, "/") {
			return remote.ChangeRecord{Description: fmt.Sprintf("root folder %s already present in %s", path, a.Name)}, nil
		}
	}

	var lastErr error
	for _, payload := range rootFolderPayloads(path) {
		resp, err := a.client.DoJSON(ctx, http.MethodPost, a.api("/rootfolder"), a.header(), payload, a.cfg.RequestTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.OK() {
			logging.Info(subsystem, "Added root folder %s to %s", path, a.Name)
			return remote.ChangeRecord{Changed: true, Description: fmt.Sprintf("root folder %s added to %s", path, a.Name)}, nil
		}
		lastErr = transport.Reject(http.MethodPost, a.api("/rootfolder"), resp)
		if resp.Status == http.StatusBadRequest {
			// Folder missing or not writable inside the container; no
			// payload variant will fix a volume-bind problem.
			break
		}
	}
	return remote.ChangeRecord{}, fmt.Errorf("create root folder %s in %s: %w", path, a.Name, lastErr)
}

func setIfPresent(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; ok {
		m[key] = value
	}
}

func equalMaps(a, b map[string]interface{}) bool {
	return reflect.DeepEqual(a, b)
}
