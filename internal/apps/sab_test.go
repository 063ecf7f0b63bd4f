package apps

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arrmada/internal/config"
)

const sampleSABIni = `__version__ = 19
[misc]
host = 0.0.0.0
port = 8080
host_whitelist = sabnzbd,
download_dir = Downloads/incomplete
complete_dir = Downloads/complete
api_key = deadbeefcafe
[categories]
[[*]]
priority = 0
pp = 3
dir =
[[tv]]
priority = 5
pp = 1
script = custom.py
dir = series
newzbin =
[servers]
[[old.provider.net]]
host = old.provider.net
port = 119
enable = 1
`

func writeSABIni(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sabnzbd.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sabUnderTest(path string) *SABnzbd {
	cfg := config.GetDefaultConfig()
	cfg.SABnzbd.ConfigPath = path
	cfg.SABnzbd.Whitelist = []string{"sabnzbd", "gluetun"}
	cfg.SABnzbd.Categories = []string{"tv", "movies"}
	cfg.Paths.Incomplete = "/downloads/incomplete"
	cfg.Paths.Completed = "/downloads/completed"
	return NewSABnzbd(cfg.SABnzbd, cfg.Paths)
}

func TestSABConvergeINI(t *testing.T) {
	path := writeSABIni(t, sampleSABIni)
	s := sabUnderTest(path)

	rec, err := s.ConvergeINI()
	require.NoError(t, err)
	assert.True(t, rec.Changed)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)

	// Whitelist unions, keeping the existing entry first.
	assert.Contains(t, text, "host_whitelist = sabnzbd,gluetun")

	// Existing category block is untouched even though it differs from
	// what a fresh block would contain.
	assert.Contains(t, text, "script = custom.py")
	assert.Contains(t, text, "dir = series")

	// Missing category is appended with defaults.
	assert.Contains(t, text, "[[movies]]")
	assert.Contains(t, text, "dir = movies")

	// Folders point at the shared paths.
	assert.Contains(t, text, "download_dir = /downloads/incomplete")
	assert.Contains(t, text, "complete_dir = /downloads/completed")
	assert.Contains(t, text, "dir_base = ")
}

func TestSABConvergeINIIdempotent(t *testing.T) {
	path := writeSABIni(t, sampleSABIni)
	s := sabUnderTest(path)

	rec, err := s.ConvergeINI()
	require.NoError(t, err)
	require.True(t, rec.Changed)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	rec, err = s.ConvergeINI()
	require.NoError(t, err)
	assert.False(t, rec.Changed, "second pass must be a no-op")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestSABConvergeINIProvider(t *testing.T) {
	path := writeSABIni(t, sampleSABIni)
	cfg := config.GetDefaultConfig()
	cfg.SABnzbd.ConfigPath = path
	cfg.SABnzbd.ConfigureProvider = true
	cfg.SABnzbd.Language = "en"
	cfg.SABnzbd.Server = config.SABnzbdServerConfig{
		Name:        "news.example.net",
		Host:        "news.example.net",
		Port:        563,
		SSL:         1,
		Username:    "user",
		Password:    "pass",
		Connections: 20,
		Priority:    0,
	}
	s := NewSABnzbd(cfg.SABnzbd, cfg.Paths)

	rec, err := s.ConvergeINI()
	require.NoError(t, err)
	require.True(t, rec.Changed)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(out)

	assert.Contains(t, text, "language = en")
	assert.Contains(t, text, "[[news.example.net]]")
	assert.Contains(t, text, "host = news.example.net")
	assert.Contains(t, text, "server_usenet_only = 1")

	// The pre-existing provider block survives; only ours is owned.
	assert.Contains(t, text, "[[old.provider.net]]")

	// The new block renders in the fixed field order.
	idx := strings.Index(text, "[[news.example.net]]")
	require.GreaterOrEqual(t, idx, 0)
	block := text[idx:]
	assert.Less(t, strings.Index(block, "host ="), strings.Index(block, "port ="))
	assert.Less(t, strings.Index(block, "connections ="), strings.Index(block, "ssl ="))
}

func TestSABConvergeINIProviderWithoutHost(t *testing.T) {
	path := writeSABIni(t, sampleSABIni)
	cfg := config.GetDefaultConfig()
	cfg.SABnzbd.ConfigPath = path
	cfg.SABnzbd.ConfigureProvider = true
	cfg.SABnzbd.Language = "en"
	s := NewSABnzbd(cfg.SABnzbd, cfg.Paths)

	_, err := s.ConvergeINI()
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	// No host means no server block gets written.
	assert.NotContains(t, string(out), "server_usenet_only")
}

func TestSABConvergeINIMissingFile(t *testing.T) {
	s := sabUnderTest(filepath.Join(t.TempDir(), "nope.ini"))
	_, err := s.ConvergeINI()
	assert.Error(t, err)
}

func TestSABAPIKey(t *testing.T) {
	path := writeSABIni(t, sampleSABIni)
	s := sabUnderTest(path)

	key, err := s.APIKey()
	require.NoError(t, err)
	assert.Equal(t, "deadbeefcafe", key)
}
