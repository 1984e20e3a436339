package jsonmin

import (
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Cache is the durable Store. It keeps content-addressed entries on a
// filesystem so formatted outputs survive process restarts.
type Cache struct {
	root             string
	hashFunc         HashFunc
	nowFunc          NowFunc
	mu               sync.RWMutex
	fs               afero.Fs
	accumulateErrors bool // If true, accumulate all validation errors; if false, fail-fast
	compression      string
	logger           zerolog.Logger
}

// HashFunc defines a function that creates a new hash.Hash instance.
type HashFunc func() hash.Hash

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Option defines a function that configures a Cache.
type Option func(*Cache)

// Open creates a new cache at the given root directory.
// The directory will be created if it doesn't exist.
func Open(root string, options ...Option) (*Cache, error) {
	cache := &Cache{
		root:     root,
		fs:       afero.NewOsFs(),
		nowFunc:  time.Now,
		hashFunc: defaultHashFunc,
		logger:   zerolog.Nop(),
	}

	// Apply options
	for _, option := range options {
		option(cache)
	}
	if _, err := ParseCompression(cache.compression); err != nil {
		return nil, err
	}

	// Create cache directories
	if err := cache.fs.MkdirAll(cache.manifestDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create manifests directory: %w", err)
	}
	if err := cache.fs.MkdirAll(cache.objectsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create objects directory: %w", err)
	}

	return cache, nil
}

// OpenTemp creates a cache on an in-memory filesystem. It behaves like a
// durable cache for the lifetime of the process.
func OpenTemp(options ...Option) *Cache {
	options = append([]Option{WithFs(afero.NewMemMapFs())}, options...)
	cache, err := Open("", options...)
	if err != nil {
		panic(fmt.Sprintf("failed to create temp cache: %v", err))
	}
	return cache
}

// Key creates a new KeyBuilder for building cache keys.
func (c *Cache) Key() *KeyBuilder {
	return &KeyBuilder{
		cache:            c,
		accumulateErrors: c.accumulateErrors,
	}
}

// entryKey is the cache key of a formatted asset.
func (c *Cache) entryKey(name, fingerprint string) Key {
	return c.Key().
		Version(cacheFormatVersion).
		String("asset", name).
		String("fingerprint", fingerprint).
		Build()
}

// cacheFormatVersion changes whenever the on-disk layout of entries does.
const cacheFormatVersion = "1"

// outputDataName is the blob name formatted outputs are stored under.
const outputDataName = "output"

// Lookup implements Store.
func (c *Cache) Lookup(name, fingerprint string) ([]byte, error) {
	result, err := c.Get(c.entryKey(name, fingerprint))
	if err != nil {
		return nil, err
	}
	if !result.HasData(outputDataName) {
		return nil, fmt.Errorf("entry %s has no %s data", result.KeyHash(), outputDataName)
	}
	return result.Bytes(outputDataName), nil
}

// Store implements Store. Storing an entry that already exists is a
// no-op.
func (c *Cache) Store(name, fingerprint string, output []byte) error {
	key := c.entryKey(name, fingerprint)
	if c.Has(key) {
		return nil
	}
	return c.Put(key).
		Bytes(outputDataName, output).
		Meta("asset", name).
		Commit()
}

// Get retrieves a cached result for the given key.
// Returns (result, nil) on cache hit.
// Returns (nil, ErrCacheMiss) if the key is not found in the cache.
// Returns (nil, ValidationError) if the key has validation errors.
// Returns (nil, error) for other errors (I/O, corruption, etc.).
func (c *Cache) Get(key Key) (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Check for key validation errors first
	if len(key.errors) > 0 {
		return nil, newValidationError(key.errors)
	}

	keyHash, err := key.computeHash()
	if err != nil {
		return nil, fmt.Errorf("failed to compute key hash: %w", err)
	}

	manifestPath := c.manifestPath(keyHash)
	exists, err := afero.Exists(c.fs, manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to check manifest: %w", err)
	}
	if !exists {
		return nil, ErrCacheMiss
	}

	m, err := c.loadManifest(keyHash)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Removed between the check and the read.
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	data, err := c.loadData(keyHash, m)
	if err != nil {
		return nil, err
	}

	outputHash, err := c.computeOutputHash(data, m.OutputMeta)
	if err != nil {
		return nil, fmt.Errorf("failed to compute output hash: %w", err)
	}
	if outputHash != m.OutputHash {
		return nil, fmt.Errorf("cache entry %s is corrupted: output hash mismatch", keyHash)
	}

	c.touch(manifestPath)

	result := &Result{
		keyHash:    keyHash,
		cache:      c,
		data:       data,
		metadata:   m.OutputMeta,
		createdAt:  m.CreatedAt,
		accessedAt: c.now(),
	}
	if result.metadata == nil {
		result.metadata = make(map[string]string)
	}

	return result, nil
}

// Put creates a WriteBuilder for storing a cache entry.
func (c *Cache) Put(key Key) *WriteBuilder {
	// Copy key errors to the write builder
	var errs []error
	if len(key.errors) > 0 {
		errs = append([]error{}, key.errors...)
	}

	return &WriteBuilder{
		cache:            c,
		key:              key,
		errors:           errs,
		accumulateErrors: c.accumulateErrors,
	}
}

// Has checks if a key exists in the cache.
// Returns false if the key doesn't exist or if there's an error.
func (c *Cache) Has(key Key) bool {
	result, err := c.Get(key)
	return err == nil && result != nil
}

// Delete removes a cache entry by key.
func (c *Cache) Delete(key Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	keyHash, err := key.computeHash()
	if err != nil {
		return fmt.Errorf("failed to compute key hash: %w", err)
	}
	return c.removeByHash(keyHash)
}

// Clear removes all entries from the cache.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Remove everything
	if err := c.fs.RemoveAll(c.manifestDir()); err != nil {
		return fmt.Errorf("failed to remove manifests: %w", err)
	}
	if err := c.fs.RemoveAll(c.objectsDir()); err != nil {
		return fmt.Errorf("failed to remove objects: %w", err)
	}

	// Recreate directories
	if err := c.fs.MkdirAll(c.manifestDir(), 0o755); err != nil {
		return fmt.Errorf("failed to recreate manifests directory: %w", err)
	}
	if err := c.fs.MkdirAll(c.objectsDir(), 0o755); err != nil {
		return fmt.Errorf("failed to recreate objects directory: %w", err)
	}

	return nil
}

// Close closes the cache and releases any resources.
func (c *Cache) Close() error {
	return nil
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// loadData reads the data blobs listed in m.
func (c *Cache) loadData(keyHash string, m *manifest) (map[string][]byte, error) {
	data := make(map[string][]byte, len(m.OutputData))
	objectDir := c.objectPath(keyHash)
	for _, name := range m.OutputData {
		raw, err := afero.ReadFile(c.fs, filepath.Join(objectDir, blobFileName(name, m.Compression)))
		if err != nil {
			return nil, fmt.Errorf("failed to read data %s: %w", name, err)
		}
		raw, err = decompressBlob(m.Compression, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress data %s: %w", name, err)
		}
		data[name] = raw
	}
	return data, nil
}

// touch records an access by moving the manifest's modification time.
// Failures only make PruneUnused less precise.
func (c *Cache) touch(manifestPath string) {
	now := c.now()
	if err := c.fs.Chtimes(manifestPath, now, now); err != nil {
		c.logger.Warn().Err(err).Str("manifest", manifestPath).Msg("Failed to update manifest access time")
	}
}

// manifestDir returns the path to the manifests directory.
func (c *Cache) manifestDir() string {
	return filepath.Join(c.root, "manifests")
}

// objectsDir returns the path to the objects directory.
func (c *Cache) objectsDir() string {
	return filepath.Join(c.root, "objects")
}

// manifestPath returns the path to a manifest file for a given key hash.
func (c *Cache) manifestPath(keyHash string) string {
	if len(keyHash) < 2 {
		panic(fmt.Sprintf("key hash too short: %s", keyHash))
	}
	prefix := keyHash[:2]
	return filepath.Join(c.manifestDir(), prefix, keyHash+".json")
}

// objectPath returns the path to the object directory for a given key hash.
func (c *Cache) objectPath(keyHash string) string {
	if len(keyHash) < 2 {
		panic(fmt.Sprintf("key hash too short: %s", keyHash))
	}
	prefix := keyHash[:2]
	return filepath.Join(c.objectsDir(), prefix, keyHash)
}

// newHash creates a new hash instance.
func (c *Cache) newHash() hash.Hash {
	return c.hashFunc()
}

// now returns the current time.
func (c *Cache) now() time.Time {
	return c.nowFunc()
}
