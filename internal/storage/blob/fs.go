// Package blob provides a filesystem-backed blob store rooted under a
// configured content directory. Paths handed to the store are always relative
// to that root.
package blob

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// FS is a blob store over a local directory.
type FS struct {
	root string
}

// NewFS creates a store rooted at dir, creating the directory if needed.
func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create content dir %s", dir)
	}
	return &FS{root: dir}, nil
}

// Exists reports whether a blob is present at the given relative path.
func (s *FS) Exists(path string) (bool, error) {
	abs, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(abs)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}

// Write stores data at the given relative path, creating parent directories
// as needed and truncating any existing file.
func (s *FS) Write(path string, data []byte) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return errors.Wrapf(err, "create dir for %s", path)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

// Delete removes the blob at the given relative path. Deleting a missing
// blob is not an error.
func (s *FS) Delete(path string) error {
	abs, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %s", path)
	}
	return nil
}

// resolve joins path onto the root and rejects paths that escape it.
func (s *FS) resolve(path string) (string, error) {
	abs := filepath.Join(s.root, filepath.FromSlash(path))
	if !strings.HasPrefix(abs, filepath.Clean(s.root)+string(filepath.Separator)) {
		return "", errors.Errorf("path %q escapes content dir", path)
	}
	return abs, nil
}
