// Package local implements storage.Store on the local filesystem. Files live
// under a single content directory and are addressed by relative keys; public
// URLs are formed by joining the key onto a configured base URL.
package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/storage"
)

// Storage implements storage.Store backed by a directory on disk.
type Storage struct {
	rootDir string
	baseURL string
}

// New creates a local filesystem store rooted at rootDir. The directory is
// created if it does not exist.
func New(rootDir, baseURL string) (*Storage, error) {
	abs, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Storage{
		rootDir: abs,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// resolve maps a key to an absolute path under the root, rejecting keys that
// would escape it.
func (s *Storage) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}
	path := filepath.Join(s.rootDir, filepath.FromSlash(key))
	if path != s.rootDir && !strings.HasPrefix(path, s.rootDir+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return path, nil
}

// Upload writes the file bytes under the given key, creating parent
// directories as needed.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	path, err := s.resolve(input.Key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory for %s: %w", input.Key, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file %s: %w", input.Key, err)
	}

	if _, err := io.Copy(f, input.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("write file %s: %w", input.Key, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close file %s: %w", input.Key, err)
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: s.baseURL + "/" + input.Key,
	}, nil
}

// Delete removes the file for the given key. Deleting a missing file is an
// error so callers can distinguish an already-cleaned orphan.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete file %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a file with the given key is present on disk.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file %s: %w", key, err)
	}
	return true, nil
}
