// Package memory implements storage.Store with an in-memory map. It stores
// file bytes so tests can assert on uploaded content without touching disk.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/storage"
)

type fileEntry struct {
	ContentType string
	Data        []byte
}

// Storage implements storage.Store using an in-memory map.
type Storage struct {
	mu      sync.RWMutex
	files   map[string]*fileEntry
	baseURL string
}

// New creates a new in-memory storage instance.
func New(baseURL string) *Storage {
	return &Storage{
		files:   make(map[string]*fileEntry),
		baseURL: baseURL,
	}
}

// Upload stores the file bytes in memory and returns the generated URL.
func (s *Storage) Upload(_ context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	data, err := io.ReadAll(input.Data)
	if err != nil {
		return nil, fmt.Errorf("read upload data: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[input.Key] = &fileEntry{
		ContentType: input.ContentType,
		Data:        data,
	}

	return &storage.UploadResult{
		Key: input.Key,
		URL: fmt.Sprintf("%s/%s", s.baseURL, input.Key),
	}, nil
}

// Delete removes the file from memory.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.files[key]; !exists {
		return fmt.Errorf("file not found: %s", key)
	}

	delete(s.files, key)
	return nil
}

// Exists reports whether a file with the given key is present.
func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.files[key]
	return exists, nil
}

// Keys returns the keys of all stored files. Useful in tests.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	return keys
}
