package jsonmin

import (
	"bytes"
	"sync"
)

// Store maps (asset name, fingerprint) to a previously formatted output.
//
// Lookup returns ErrCacheMiss when no entry exists; any other error means
// the backend itself failed. Store must be idempotent. Implementations
// must be safe for concurrent use; concurrent stores of the same key may
// resolve last-write-wins since outputs are deterministic per key.
type Store interface {
	Lookup(name, fingerprint string) ([]byte, error)
	Store(name, fingerprint string, output []byte) error
}

type storeKey struct {
	name        string
	fingerprint string
}

// MemoryStore is an ephemeral Store that lives as long as the process.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[storeKey][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[storeKey][]byte)}
}

// Lookup implements Store.
func (s *MemoryStore) Lookup(name, fingerprint string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.entries[storeKey{name, fingerprint}]
	if !ok {
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), out...), nil
}

// Store implements Store.
func (s *MemoryStore) Store(name, fingerprint string, output []byte) error {
	key := storeKey{name, fingerprint}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.entries[key]; ok && bytes.Equal(existing, output) {
		return nil
	}
	s.entries[key] = append([]byte(nil), output...)
	return nil
}

// Len returns the number of entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// NopStore never remembers anything. It disables caching.
type NopStore struct{}

// Lookup implements Store.
func (NopStore) Lookup(string, string) ([]byte, error) { return nil, ErrCacheMiss }

// Store implements Store.
func (NopStore) Store(string, string, []byte) error { return nil }
