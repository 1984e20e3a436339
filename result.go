package jsonmin

import (
	"sort"
	"time"
)

// Result represents a cached entry.
// Users should not construct this directly - it's returned by Cache.Get().
type Result struct {
	keyHash    string
	cache      *Cache
	data       map[string][]byte // name -> bytes
	metadata   map[string]string // metadata key-value pairs
	createdAt  time.Time
	accessedAt time.Time
}

// Bytes returns byte data by name.
// Returns nil if the data doesn't exist.
func (r *Result) Bytes(name string) []byte {
	return r.data[name]
}

// HasData returns true if data with the given name exists in the entry.
func (r *Result) HasData(name string) bool {
	_, ok := r.data[name]
	return ok
}

// DataNames returns the sorted names of all stored data.
func (r *Result) DataNames() []string {
	names := make([]string, 0, len(r.data))
	for name := range r.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Meta returns metadata by key.
// Returns empty string if the key doesn't exist.
func (r *Result) Meta(key string) string {
	return r.metadata[key]
}

// Metadata returns all metadata as a map.
func (r *Result) Metadata() map[string]string {
	result := make(map[string]string, len(r.metadata))
	for k, v := range r.metadata {
		result[k] = v
	}
	return result
}

// Age returns how long ago this result was created.
func (r *Result) Age() time.Duration {
	return r.cache.now().Sub(r.createdAt)
}

// CreatedAt returns when this result was originally cached.
func (r *Result) CreatedAt() time.Time {
	return r.createdAt
}

// AccessedAt returns when this result was last accessed.
func (r *Result) AccessedAt() time.Time {
	return r.accessedAt
}

// Size returns the total size of all data in bytes, uncompressed.
func (r *Result) Size() int64 {
	var total int64
	for _, d := range r.data {
		total += int64(len(d))
	}
	return total
}

// KeyHash returns the hash of the cache key for this result.
// Useful for debugging and logging.
func (r *Result) KeyHash() string {
	return r.keyHash
}
