package apps

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"

	"arrmada/internal/textconf"
)

// arrConfigXML is the slice of the *arr config.xml this package cares
// about.
type arrConfigXML struct {
	XMLName xml.Name `xml:"Config"`
	APIKey  string   `xml:"ApiKey"`
}

// APIKeyFromXML reads the ApiKey element from an application's config.xml.
// The applications generate the key on first start, so an empty result
// usually means the app has not finished initializing.
func APIKeyFromXML(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg arrConfigXML
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return "", fmt.Errorf("no ApiKey in %s", path)
	}
	return key, nil
}

// APIKeyFromINI reads the api_key setting from sabnzbd.ini.
func APIKeyFromINI(path string) (string, error) {
	f, err := textconf.Open(path)
	if err != nil {
		return "", err
	}
	key, ok := f.Doc.Lookup("misc", "api_key")
	if !ok {
		return "", fmt.Errorf("no api_key in %s", path)
	}
	return key, nil
}
