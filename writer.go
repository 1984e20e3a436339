package jsonmin

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// WriteBuilder provides a fluent API for storing cache results.
// Users should not construct this directly, use Cache.Put() instead.
type WriteBuilder struct {
	cache            *Cache
	key              Key
	data             map[string][]byte // name -> bytes
	metadata         map[string]string // metadata key-value pairs
	errors           []error           // Accumulated validation errors (from key + write operations)
	accumulateErrors bool              // If true, accumulate all errors; if false, fail-fast
}

// Bytes adds byte data to be stored in the cache.
// name is the logical name for this data (used to retrieve it later).
// Names become file names, so they may not contain path separators.
func (wb *WriteBuilder) Bytes(name string, data []byte) *WriteBuilder {
	if wb.accumulateErrors || len(wb.errors) == 0 {
		if err := validateDataName(name); err != nil {
			wb.errors = append(wb.errors, err)
		}
	}

	if wb.data == nil {
		wb.data = make(map[string][]byte)
	}
	// Store a copy to prevent mutations
	wb.data[name] = append([]byte(nil), data...)
	return wb
}

// Meta adds metadata to the cache entry.
// Metadata is stored as string key-value pairs.
func (wb *WriteBuilder) Meta(key, value string) *WriteBuilder {
	if wb.metadata == nil {
		wb.metadata = make(map[string]string)
	}
	wb.metadata[key] = value
	return wb
}

// Commit finalizes and stores the cache entry.
// Returns a ValidationError if there are accumulated errors from key building or write operations.
// Returns an error if the storage operation fails.
func (wb *WriteBuilder) Commit() error {
	// Check for accumulated validation errors first
	if len(wb.errors) > 0 {
		return newValidationError(wb.errors)
	}

	wb.cache.mu.Lock()
	defer wb.cache.mu.Unlock()

	// Compute key hash (this will check for key validation errors)
	keyHash, err := wb.key.computeHash()
	if err != nil {
		return fmt.Errorf("failed to compute key hash: %w", err)
	}

	// Create object directory
	objectDir := wb.cache.objectPath(keyHash)
	if err := wb.cache.fs.MkdirAll(objectDir, 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	compression := wb.cache.compression

	// Write byte data to cache as blobs
	names := make([]string, 0, len(wb.data))
	for name, data := range wb.data {
		blob, err := compressBlob(compression, data)
		if err != nil {
			return fmt.Errorf("failed to compress data %s: %w", name, err)
		}
		dstPath := filepath.Join(objectDir, blobFileName(name, compression))
		if err := wb.cache.writeFileAtomic(dstPath, blob); err != nil {
			return fmt.Errorf("failed to write data %s: %w", name, err)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	outputHash, err := wb.cache.computeOutputHash(wb.data, wb.metadata)
	if err != nil {
		return fmt.Errorf("failed to compute output hash: %w", err)
	}

	m := &manifest{
		KeyHash:     keyHash,
		InputDescs:  wb.key.describe(),
		ExtraData:   wb.key.extras,
		OutputData:  names,
		OutputMeta:  wb.metadata,
		OutputHash:  outputHash,
		Compression: compression,
		CreatedAt:   wb.cache.now(),
	}

	if err := wb.cache.saveManifest(m); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	return nil
}

func validateDataName(name string) error {
	if name == "" {
		return fmt.Errorf("data name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid data name %q", name)
	}
	return nil
}
