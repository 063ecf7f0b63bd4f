package config

import "time"

// GetDefaultConfig returns the default configuration for arrmada. The
// defaults mirror a single-host docker-compose deployment with the stock
// service names and ports.
func GetDefaultConfig() Config {
	return Config{
		WaitTimeout: 300 * time.Second,
		Auth: AuthConfig{
			Method:   "forms",
			Username: "user",
			Password: "password",
		},
		Prowlarr: ArrConfig{
			URL:            "http://localhost:9696",
			DockerURL:      "http://prowlarr:9696",
			Container:      "prowlarr",
			APIVersion:     1,
			RequestTimeout: 120 * time.Second,
		},
		Sonarr: ArrConfig{
			URL:            "http://localhost:8989",
			DockerURL:      "http://sonarr:8989",
			Container:      "sonarr",
			APIVersion:     3,
			RequestTimeout: 15 * time.Second,
		},
		Radarr: ArrConfig{
			URL:            "http://localhost:7878",
			DockerURL:      "http://radarr:7878",
			Container:      "radarr",
			APIVersion:     3,
			RequestTimeout: 15 * time.Second,
		},
		QBittorrent: QBittorrentConfig{
			URL:            "http://127.0.0.1:8080",
			Container:      "qbittorrent",
			Host:           "gluetun",
			Port:           8080,
			SetKnownCreds:  true,
			SonarrCategory: "tv",
			RadarrCategory: "movies",
			WaitTimeout:    240 * time.Second,
		},
		SABnzbd: SABnzbdConfig{
			Container:  "sabnzbd",
			Host:       "sabnzbd",
			Port:       8080,
			HTTPPort:   8080,
			Categories: []string{"tv", "movies"},
			Language:   "en",
			Server: SABnzbdServerConfig{
				Name:        "provider",
				Port:        563,
				SSL:         1,
				Connections: 20,
			},
		},
		Proxy: ProxyConfig{
			Create:    true,
			Name:      "FlareSolverr",
			DockerURL: "http://flaresolverr:8191",
			TagLabel:  "cf",
		},
		Usenet: UsenetConfig{
			TorrentDelay: 60,
		},
		Paths: PathsConfig{
			Completed:  "/downloads",
			Incomplete: "/downloads/incomplete",
			Movies:     "/movies",
			Shows:      "/shows",
		},
		Retry: RetryConfig{
			Attempts: 4,
			Delay:    3 * time.Second,
		},
		Indexers: []string{"1337x", "EZTV", "TorrentGalaxyClone", "ThePirateBay"},
	}
}
