package textconf

import (
	"fmt"
	"os"
	"path/filepath"

	"arrmada/pkg/logging"
)

const subsystem = "TextConf"

// File couples a parsed Document with the path it came from and the
// original bytes, so Save can tell whether anything actually changed.
type File struct {
	Path string
	Doc  *Document

	original string
}

// Open reads and parses the configuration file at path. The content is
// treated as best-effort text; invalid byte sequences pass through
// untouched.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &File{Path: path, Doc: Parse(string(data)), original: string(data)}, nil
}

// Save writes the document back to its path. If the rendered output is
// byte-identical to what Open read, nothing is written and Save reports
// false. Otherwise the original content is copied to <path>.bak first,
// then the file is replaced through a temp file and rename so readers
// never observe a partial write.
func (f *File) Save() (bool, error) {
	rendered := f.Doc.Render()
	if rendered == f.original {
		logging.Debug(subsystem, "%s unchanged, skipping write", f.Path)
		return false, nil
	}

	backup := f.Path + ".bak"
	if err := os.WriteFile(backup, []byte(f.original), 0o644); err != nil {
		return false, fmt.Errorf("failed to write backup %s: %w", backup, err)
	}

	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.Path)+".tmp-*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(rendered); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return false, fmt.Errorf("failed to replace %s: %w", f.Path, err)
	}

	logging.Info(subsystem, "Updated %s (backup at %s)", f.Path, filepath.Base(backup))
	f.original = rendered
	return true, nil
}
