package probe

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"arrmada/pkg/logging"

	"github.com/fsnotify/fsnotify"
)

const filePollInterval = 2 * time.Second

// FileProbe declares a target ready once Path exists. It subscribes to
// fsnotify events on the parent directory so a freshly written config file
// is seen immediately, and keeps a slow poll running underneath because
// network and overlay filesystems drop events.
type FileProbe struct {
	Path string
}

// NewFileProbe creates a file-existence probe for path.
func NewFileProbe(path string) *FileProbe {
	return &FileProbe{Path: path}
}

// Describe implements Prober.
func (p *FileProbe) Describe() string {
	return "file " + p.Path
}

// WaitUntilReady implements Prober.
func (p *FileProbe) WaitUntilReady(ctx context.Context, timeout time.Duration) bool {
	logging.Info(subsystem, "Waiting for %s (timeout %s)", p.Describe(), timeout)

	if p.exists() {
		logging.Info(subsystem, "Found %s", p.Path)
		return true
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Debug(subsystem, "fsnotify unavailable, polling only: %v", err)
		watcher = nil
	} else if err := watcher.Add(filepath.Dir(p.Path)); err != nil {
		// Parent directory may not exist yet; polling covers it.
		logging.Debug(subsystem, "watch on %s unavailable, polling only: %v", filepath.Dir(p.Path), err)
		watcher.Close()
		watcher = nil
	}

	// Nil channels block forever in the select, so a missing watcher
	// degrades to the poll ticker alone.
	var events chan fsnotify.Event
	var watchErrs chan error
	if watcher != nil {
		defer watcher.Close()
		events = watcher.Events
		watchErrs = watcher.Errors
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(filePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			logging.Warn(subsystem, "%s not found before timeout", p.Path)
			return false
		case ev := <-events:
			if ev.Name == p.Path && p.exists() {
				logging.Info(subsystem, "Found %s", p.Path)
				return true
			}
		case err := <-watchErrs:
			logging.Debug(subsystem, "watch error on %s: %v", filepath.Dir(p.Path), err)
		case <-ticker.C:
			if p.exists() {
				logging.Info(subsystem, "Found %s", p.Path)
				return true
			}
			logging.Debug(subsystem, "still waiting for %s", p.Path)
		}
	}
}

func (p *FileProbe) exists() bool {
	_, err := os.Stat(p.Path)
	return err == nil
}
