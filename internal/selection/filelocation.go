package selection

import (
	"os"
	"path/filepath"
	"strings"
)

// FileLocation persists the identifier to a small state file so the last
// selection survives process restarts. Read returns "" when the file is
// missing or unreadable; Replace failures are ignored, leaving the previous
// persisted value in place.
type FileLocation struct {
	path string
}

// NewFileLocation creates a file-backed location at path.
func NewFileLocation(path string) *FileLocation {
	return &FileLocation{path: path}
}

func (f *FileLocation) Read() string {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (f *FileLocation) Replace(encoded string) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return
	}
	_ = os.WriteFile(f.path, []byte(encoded+"\n"), 0o600)
}
