package markdown

import (
	"fmt"
	"os"
	"path/filepath"

	"ArticlesDigest/internal/ports"
)

// FileWriter stores digests under a fixed directory and file name.
type FileWriter struct {
	dir  string
	name string
}

var _ ports.DigestWriter = (*FileWriter)(nil)

// NewFileWriter targets dir/name.
func NewFileWriter(dir, name string) *FileWriter {
	return &FileWriter{dir: dir, name: name}
}

// Write implements ports.DigestWriter.
func (w *FileWriter) Write(digest string) (string, error) {
	return WriteFile(w.dir, w.name, digest)
}

// WriteFile writes doc to dir/name, creating dir when missing, and returns the path.
func WriteFile(dir, name, doc string) (string, error) {
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	case err != nil:
		return "", fmt.Errorf("stat output dir: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("output path %s is not a directory", dir)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", fmt.Errorf("write digest: %w", err)
	}
	return path, nil
}
