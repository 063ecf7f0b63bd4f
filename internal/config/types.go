package config

import (
	"strings"
	"time"
)

// Config is the top-level configuration for a convergence pass.
type Config struct {
	// WaitTimeout bounds every readiness wait (HTTP, file, container).
	WaitTimeout time.Duration `yaml:"waitTimeout,omitempty"`

	Auth        AuthConfig        `yaml:"auth,omitempty"`
	Prowlarr    ArrConfig         `yaml:"prowlarr,omitempty"`
	Sonarr      ArrConfig         `yaml:"sonarr,omitempty"`
	Radarr      ArrConfig         `yaml:"radarr,omitempty"`
	QBittorrent QBittorrentConfig `yaml:"qbittorrent,omitempty"`
	SABnzbd     SABnzbdConfig     `yaml:"sabnzbd,omitempty"`
	Proxy       ProxyConfig       `yaml:"proxy,omitempty"`
	Usenet      UsenetConfig      `yaml:"usenet,omitempty"`
	Paths       PathsConfig       `yaml:"paths,omitempty"`
	Retry       RetryConfig       `yaml:"retry,omitempty"`

	// Indexers lists the indexer definitions to seed in the aggregator,
	// by definition name (for example "1337x" or "EZTV").
	Indexers []string `yaml:"indexers,omitempty"`

	// IndexerOverrides holds per-indexer field values, keyed by the
	// indexer's canonical name (uppercase alphanumerics) and then by the
	// uppercased schema field name. Populated from IDX_<NAME>__<FIELD>
	// environment variables.
	IndexerOverrides map[string]map[string]string `yaml:"indexerOverrides,omitempty"`
}

// IndexerOverride returns the configured override for one schema field of
// the named indexer, if any.
func (c *Config) IndexerOverride(indexerName, fieldName string) (string, bool) {
	fields, ok := c.IndexerOverrides[CanonIndexerKey(indexerName)]
	if !ok {
		return "", false
	}
	v, ok := fields[strings.ToUpper(fieldName)]
	return v, ok
}

// CanonIndexerKey reduces an indexer name to the form used in override
// keys: uppercase letters and digits only.
func CanonIndexerKey(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AuthConfig holds the UI credentials applied to the PVR applications.
type AuthConfig struct {
	// Method is "forms" or "basic". Forms is tried first; basic is the
	// fallback for builds that reject forms.
	Method   string `yaml:"method,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// ArrConfig describes one *arr-style application (Prowlarr, Sonarr, Radarr).
type ArrConfig struct {
	// URL is the address the orchestrator reaches the application at.
	URL string `yaml:"url,omitempty"`

	// DockerURL is the address sibling containers reach the application
	// at; it is what gets written into remote entities.
	DockerURL string `yaml:"dockerUrl,omitempty"`

	// ConfigPath is the application's config.xml on disk, used to
	// discover its API key.
	ConfigPath string `yaml:"configPath,omitempty"`

	// Container is the docker-compose service name, used for restarts
	// and container readiness probes.
	Container string `yaml:"container,omitempty"`

	// APIVersion selects the API prefix (v1 for Prowlarr, v3 for
	// Sonarr/Radarr).
	APIVersion int `yaml:"apiVersion,omitempty"`

	// RequestTimeout bounds a single HTTP call to this application.
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`
}

// QBittorrentConfig describes the qBittorrent download client.
type QBittorrentConfig struct {
	URL       string `yaml:"url,omitempty"`
	Container string `yaml:"container,omitempty"`

	// Host and Port are what the PVR applications use to reach the
	// client (typically the VPN gateway container).
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// SetKnownCreds rotates the generated temporary password to the UI
	// credentials once the client is reachable.
	SetKnownCreds bool `yaml:"setKnownCreds,omitempty"`

	SonarrCategory string        `yaml:"sonarrCategory,omitempty"`
	RadarrCategory string        `yaml:"radarrCategory,omitempty"`
	WaitTimeout    time.Duration `yaml:"waitTimeout,omitempty"`
}

// SABnzbdServerConfig describes the optional usenet provider block written
// into sabnzbd.ini.
type SABnzbdServerConfig struct {
	Name        string `yaml:"name,omitempty"`
	Host        string `yaml:"host,omitempty"`
	Port        int    `yaml:"port,omitempty"`
	SSL         int    `yaml:"ssl,omitempty"`
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	Connections int    `yaml:"connections,omitempty"`
	Priority    int    `yaml:"priority,omitempty"`
}

// SABnzbdConfig describes the SABnzbd download client.
type SABnzbdConfig struct {
	ConfigPath string `yaml:"configPath,omitempty"`
	Container  string `yaml:"container,omitempty"`

	// Host and Port are what the PVR applications use to reach SABnzbd.
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	HTTPPort int    `yaml:"httpPort,omitempty"`

	Whitelist  []string `yaml:"whitelist,omitempty"`
	Categories []string `yaml:"categories,omitempty"`
	Language   string   `yaml:"language,omitempty"`

	// ConfigureProvider enables writing the [[server]] provider block.
	ConfigureProvider bool                `yaml:"configureProvider,omitempty"`
	Server            SABnzbdServerConfig `yaml:"server,omitempty"`
}

// ProxyConfig describes the optional FlareSolverr indexer proxy.
type ProxyConfig struct {
	Create    bool   `yaml:"create,omitempty"`
	Name      string `yaml:"name,omitempty"`
	DockerURL string `yaml:"dockerUrl,omitempty"`
	TagLabel  string `yaml:"tagLabel,omitempty"`
}

// UsenetConfig holds fallback credentials applied to usenet indexer
// definitions that expect an API key or base URL.
type UsenetConfig struct {
	DefaultAPIKey  string `yaml:"defaultApiKey,omitempty"`
	DefaultBaseURL string `yaml:"defaultBaseUrl,omitempty"`

	// TorrentDelay is the delay-profile penalty (seconds) applied to
	// torrent grabs when a usenet indexer is available.
	TorrentDelay int `yaml:"torrentDelay,omitempty"`
}

// PathsConfig holds the container-internal paths shared across the stack.
type PathsConfig struct {
	Completed  string `yaml:"completed,omitempty"`
	Incomplete string `yaml:"incomplete,omitempty"`
	Movies     string `yaml:"movies,omitempty"`
	Shows      string `yaml:"shows,omitempty"`
}

// RetryConfig tunes the resilient transport.
type RetryConfig struct {
	Attempts int           `yaml:"attempts,omitempty"`
	Delay    time.Duration `yaml:"delay,omitempty"`
}
