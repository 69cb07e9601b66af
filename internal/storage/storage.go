// Package storage implements the persistent local key-value boundary the
// storefront uses for guest state. Values are string-serialized JSON keyed
// by a fixed namespace, read at startup and rewritten on every mutation,
// the same contract the browser's localStorage gave the original client.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store is a namespaced string key-value store.
// Implementations must make Set durable before returning; a failed write
// is reported but callers keep their in-memory state authoritative.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Well-known namespaces.
const (
	KeyCart             = "cart"
	KeySelectedCategory = "selectedCategory"
	KeyIdentity         = "identity"
)

// FileStore persists all keys to a single JSON file under a state
// directory. Reads are served from memory; every mutation rewrites the
// file synchronously.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// NewFileStore loads (or initializes) the store backing file at
// dir/storefront.json. A corrupt file is discarded rather than failing
// startup, matching how the source client dropped unparseable saved state.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	s := &FileStore{
		path: filepath.Join(dir, "storefront.json"),
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		s.data = make(map[string]string)
	}
	return s, nil
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flushLocked()
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return s.flushLocked()
}

// flushLocked writes the full map through a temp file + rename so a crash
// mid-write never truncates existing state.
func (s *FileStore) flushLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// MemStore is an in-memory Store for tests and ephemeral sessions.
type MemStore struct {
	mu   sync.Mutex
	data map[string]string

	// FailWrites makes Set/Delete return an error while still applying the
	// mutation in memory, for exercising the non-fatal persistence path.
	FailWrites bool
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	if s.FailWrites {
		return fmt.Errorf("write disabled")
	}
	return nil
}

func (s *MemStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	if s.FailWrites {
		return fmt.Errorf("write disabled")
	}
	return nil
}
