package scratch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStore is a TempFileStore backed by a directory on local disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the scratch directory if needed and returns a store rooted at it.
func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving scratch dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Allocate creates an empty file named <unix-nanos>-<uuid><suffix>.
// O_EXCL guarantees no two callers ever share a path.
func (s *LocalStore) Allocate(suffix string) (string, error) {
	if strings.ContainsRune(suffix, filepath.Separator) {
		return "", fmt.Errorf("invalid scratch suffix %q", suffix)
	}
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixNano(), uuid.NewString(), suffix)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("allocating scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("allocating scratch file: %w", err)
	}
	return path, nil
}

// Release removes path. It refuses paths outside the scratch directory.
func (s *LocalStore) Release(path string) error {
	if path == "" {
		return nil
	}
	rel, err := filepath.Rel(s.dir, filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return fmt.Errorf("refusing to release %s: outside scratch dir %s", path, s.dir)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing scratch file: %w", err)
	}
	return nil
}
