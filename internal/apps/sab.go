package apps

import (
	"fmt"
	"strconv"

	"arrmada/internal/config"
	"arrmada/internal/remote"
	"arrmada/internal/textconf"
	"arrmada/pkg/logging"
)

// SABnzbd converges sabnzbd.ini. SABnzbd has no usable remote API before
// its first start, so its configuration is patched directly in the file
// and the orchestrator restarts the container when anything changed.
type SABnzbd struct {
	cfg   config.SABnzbdConfig
	paths config.PathsConfig
}

// NewSABnzbd creates the SABnzbd file reconciler.
func NewSABnzbd(cfg config.SABnzbdConfig, paths config.PathsConfig) *SABnzbd {
	return &SABnzbd{cfg: cfg, paths: paths}
}

// ConfigPath returns the sabnzbd.ini location.
func (s *SABnzbd) ConfigPath() string { return s.cfg.ConfigPath }

// Container returns the compose service name.
func (s *SABnzbd) Container() string { return s.cfg.Container }

// ConvergeINI applies every desired setting to sabnzbd.ini in one pass
// and writes the file once. The returned ChangeRecord drives the
// container restart decision.
func (s *SABnzbd) ConvergeINI() (remote.ChangeRecord, error) {
	f, err := textconf.Open(s.cfg.ConfigPath)
	if err != nil {
		return remote.ChangeRecord{}, err
	}

	s.ensureWhitelist(f.Doc)
	s.ensureCategories(f.Doc)
	s.ensureFolders(f.Doc)
	if s.cfg.ConfigureProvider {
		s.ensureLanguage(f.Doc)
		s.ensureServer(f.Doc)
	}

	wrote, err := f.Save()
	if err != nil {
		return remote.ChangeRecord{}, err
	}
	if !wrote {
		return remote.ChangeRecord{Description: "sabnzbd.ini already converged"}, nil
	}
	return remote.ChangeRecord{Changed: true, Description: "sabnzbd.ini updated"}, nil
}

// ensureWhitelist unions the hostnames the web UI must accept into
// host_whitelist; entries someone added by hand stay.
func (s *SABnzbd) ensureWhitelist(doc *textconf.Document) {
	if doc.MergeListKey("misc", "host_whitelist", s.cfg.Whitelist) {
		logging.Info(subsystem, "Updated SABnzbd host_whitelist with %v", s.cfg.Whitelist)
	}
}

// ensureCategories adds missing [[category]] blocks under [categories].
// Existing blocks are left alone: SABnzbd fills its own defaults into
// them and rewriting would fight it.
func (s *SABnzbd) ensureCategories(doc *textconf.Document) {
	for _, cat := range s.cfg.Categories {
		if sec := doc.Section("categories"); sec != nil && sec.Block(cat) != nil {
			continue
		}
		doc.EnsureSubBlock("categories", cat, []textconf.Pair{
			{Key: "priority", Value: "-100"},
			{Key: "pp", Value: "3"},
			{Key: "script", Value: ""},
			{Key: "dir", Value: cat},
			{Key: "newzbin", Value: ""},
		})
		logging.Info(subsystem, "Added SABnzbd category %q", cat)
	}
}

// ensureFolders points the download folders at the shared container
// paths and clears dir_base so it cannot override them.
func (s *SABnzbd) ensureFolders(doc *textconf.Document) {
	doc.EnsureSection("misc", []textconf.Pair{
		{Key: "download_dir", Value: s.paths.Incomplete},
		{Key: "complete_dir", Value: s.paths.Completed},
		{Key: "dir_base", Value: ""},
	})
}

func (s *SABnzbd) ensureLanguage(doc *textconf.Document) {
	doc.EnsureSection("misc", []textconf.Pair{{Key: "language", Value: s.cfg.Language}})
}

// ensureServer writes the [[provider]] block under [servers]. The block
// is fully owned, so it is replaced verbatim in a fixed field order.
func (s *SABnzbd) ensureServer(doc *textconf.Document) {
	srv := s.cfg.Server
	if srv.Host == "" {
		logging.Info(subsystem, "No SABnzbd provider host configured, skipping server block")
		return
	}
	doc.EnsureSubBlock("servers", srv.Name, []textconf.Pair{
		{Key: "host", Value: srv.Host},
		{Key: "port", Value: strconv.Itoa(srv.Port)},
		{Key: "username", Value: srv.Username},
		{Key: "password", Value: srv.Password},
		{Key: "connections", Value: strconv.Itoa(srv.Connections)},
		{Key: "ssl", Value: strconv.Itoa(srv.SSL)},
		{Key: "enable", Value: "1"},
		{Key: "priority", Value: strconv.Itoa(srv.Priority)},
		{Key: "retention", Value: "0"},
		{Key: "optional", Value: "0"},
		{Key: "send_group", Value: "0"},
		{Key: "fetch_by_msgid", Value: "0"},
		{Key: "server_usenet_only", Value: "1"},
	})
	logging.Debug(subsystem, "Converged SABnzbd provider block %q (%s:%d)", srv.Name, srv.Host, srv.Port)
}

// APIKey reads the api_key SABnzbd generated into its ini.
func (s *SABnzbd) APIKey() (string, error) {
	key, err := APIKeyFromINI(s.cfg.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("read SABnzbd api key: %w", err)
	}
	return key, nil
}
