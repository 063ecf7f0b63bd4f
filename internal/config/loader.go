package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"arrmada/pkg/logging"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// LoadConfig resolves the configuration for a convergence pass: defaults,
// then config.yaml from configPath (if present), then environment
// overrides. The returned Config is validated.
func LoadConfig(configPath string) (Config, error) {
	cfg := GetDefaultConfig()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	case errors.Is(err, os.ErrNotExist):
		logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
	default:
		return Config{}, err
	}

	ApplyEnvOverrides(&cfg)
	fillDerivedDefaults(&cfg)

	if errs := cfg.Validate(); errs.HasErrors() {
		return Config{}, errs
	}
	return cfg, nil
}

// ApplyEnvOverrides overlays the environment-variable contract the stack's
// compose deployments use onto cfg. Unset variables leave cfg untouched.
func ApplyEnvOverrides(cfg *Config) {
	envSeconds("WAIT_TIMEOUT", &cfg.WaitTimeout)

	envString("AUTH_METHOD", &cfg.Auth.Method)
	envString("UI_USER", &cfg.Auth.Username)
	envString("UI_PASS", &cfg.Auth.Password)

	envBaseURL("PROWLARR_URL", &cfg.Prowlarr.URL)
	envString("PROWLARR_CFG", &cfg.Prowlarr.ConfigPath)
	envSeconds("PROWLARR_REQ_TIMEOUT", &cfg.Prowlarr.RequestTimeout)

	envBaseURL("SONARR_URL", &cfg.Sonarr.URL)
	envString("SONARR_CFG", &cfg.Sonarr.ConfigPath)

	envBaseURL("RADARR_URL", &cfg.Radarr.URL)
	envString("RADARR_CFG", &cfg.Radarr.ConfigPath)

	envBool("CREATE_PROXY", &cfg.Proxy.Create)
	envString("FSR_NAME", &cfg.Proxy.Name)
	envString("CF_TAG", &cfg.Proxy.TagLabel)

	if host, ok := os.LookupEnv("QBT_API_HOST"); ok {
		scheme := "http"
		if v, _ := strconv.ParseBool(os.Getenv("QBT_API_SSL")); v {
			scheme = "https"
		}
		port := 8080
		if p, err := strconv.Atoi(os.Getenv("QBT_API_PORT")); err == nil && p > 0 {
			port = p
		}
		cfg.QBittorrent.URL = fmt.Sprintf("%s://%s:%d", scheme, host, port)
	}
	envSeconds("QBT_API_WAIT_TIMEOUT", &cfg.QBittorrent.WaitTimeout)
	envString("QBT_CONTAINER", &cfg.QBittorrent.Container)
	envString("QBITTORRENT_CAT_SONARR", &cfg.QBittorrent.SonarrCategory)
	envString("QBITTORRENT_CAT_RADARR", &cfg.QBittorrent.RadarrCategory)

	envString("USENET_DEFAULT_APIKEY", &cfg.Usenet.DefaultAPIKey)
	envString("USENET_DEFAULT_BASEURL", &cfg.Usenet.DefaultBaseURL)

	envString("SABNZBD_CFG", &cfg.SABnzbd.ConfigPath)
	envString("SABNZBD_CONTAINER", &cfg.SABnzbd.Container)
	envList("SAB_WHITELIST", &cfg.SABnzbd.Whitelist)
	envList("SAB_CATEGORIES", &cfg.SABnzbd.Categories)
	envBool("SAB_CONFIG_PROVIDER", &cfg.SABnzbd.ConfigureProvider)
	envInt("SAB_HTTP_PORT", &cfg.SABnzbd.HTTPPort)
	envString("SAB_LANG", &cfg.SABnzbd.Language)
	envString("SAB_SRV_NAME", &cfg.SABnzbd.Server.Name)
	envString("SAB_SRV_HOST", &cfg.SABnzbd.Server.Host)
	envInt("SAB_SRV_PORT", &cfg.SABnzbd.Server.Port)
	envInt("SAB_SRV_SSL", &cfg.SABnzbd.Server.SSL)
	envString("SAB_SRV_USER", &cfg.SABnzbd.Server.Username)
	envString("SAB_SRV_PASS", &cfg.SABnzbd.Server.Password)
	envInt("SAB_SRV_CONNS", &cfg.SABnzbd.Server.Connections)
	envInt("SAB_SRV_PRIORITY", &cfg.SABnzbd.Server.Priority)

	envList("INDEXERS", &cfg.Indexers)

	applyIndexerOverrides(cfg, os.Environ())
}

// applyIndexerOverrides collects IDX_<NAME>__<FIELD> variables into
// cfg.IndexerOverrides so nothing downstream reads the environment.
func applyIndexerOverrides(cfg *Config, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasPrefix(key, "IDX_") {
			continue
		}
		name, field, ok := strings.Cut(strings.TrimPrefix(key, "IDX_"), "__")
		if !ok || name == "" || field == "" {
			continue
		}
		if cfg.IndexerOverrides == nil {
			cfg.IndexerOverrides = make(map[string]map[string]string)
		}
		canon := CanonIndexerKey(name)
		if cfg.IndexerOverrides[canon] == nil {
			cfg.IndexerOverrides[canon] = make(map[string]string)
		}
		cfg.IndexerOverrides[canon][strings.ToUpper(field)] = value
	}
}

// fillDerivedDefaults computes the defaults that depend on other settings
// and so cannot live in GetDefaultConfig.
func fillDerivedDefaults(cfg *Config) {
	confRoot := os.Getenv("CONF_HOME")
	if cfg.Prowlarr.ConfigPath == "" {
		cfg.Prowlarr.ConfigPath = filepath.Join(confRoot, "prowlarr", "config.xml")
	}
	if cfg.Sonarr.ConfigPath == "" {
		cfg.Sonarr.ConfigPath = filepath.Join(confRoot, "sonarr", "config.xml")
	}
	if cfg.Radarr.ConfigPath == "" {
		cfg.Radarr.ConfigPath = filepath.Join(confRoot, "radarr", "config.xml")
	}
	if cfg.SABnzbd.ConfigPath == "" {
		cfg.SABnzbd.ConfigPath = filepath.Join(confRoot, "sabnzbd", "sabnzbd.ini")
	}
	if len(cfg.SABnzbd.Whitelist) == 0 {
		hostname, _ := os.Hostname()
		cfg.SABnzbd.Whitelist = []string{"sabnzbd", "localhost", "127.0.0.1"}
		if hostname != "" {
			cfg.SABnzbd.Whitelist = append(cfg.SABnzbd.Whitelist, hostname, hostname+".local")
		}
	}
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func envBaseURL(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = strings.TrimRight(v, "/")
	}
}

func envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = strings.EqualFold(v, "true")
	}
}

func envSeconds(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}

func envList(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) > 0 {
		*dst = out
	}
}
