package jsonmin

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// manifest represents a cache manifest file.
// It contains metadata about a cached computation.
type manifest struct {
	// Key information
	KeyHash    string            `json:"keyHash"` // Hash of the key
	InputDescs []string          `json:"inputs"`  // String descriptions of key components
	ExtraData  map[string]string `json:"extra"`   // Key components

	// Result information
	OutputData  []string          `json:"data"`                  // Names of stored data blobs
	OutputMeta  map[string]string `json:"outputMeta"`            // String metadata
	OutputHash  string            `json:"outputHash"`            // Hash of data and metadata
	Compression string            `json:"compression,omitempty"` // Blob encoding, empty for raw

	CreatedAt time.Time `json:"createdAt"` // When the cache entry was created
}

// saveManifest writes a manifest so that readers either see the previous
// version or the complete new one.
func (c *Cache) saveManifest(m *manifest) error {
	path := c.manifestPath(m.KeyHash)
	if err := c.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := c.writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	// The manifest's modification time doubles as its access time.
	now := c.now()
	if err := c.fs.Chtimes(path, now, now); err != nil {
		c.logger.Warn().Err(err).Str("manifest", path).Msg("Failed to set manifest times")
	}
	return nil
}

// loadManifest reads a manifest from disk.
func (c *Cache) loadManifest(keyHash string) (*manifest, error) {
	data, err := afero.ReadFile(c.fs, c.manifestPath(keyHash))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &m, nil
}

// writeFileAtomic writes data next to path and renames it into place.
func (c *Cache) writeFileAtomic(path string, data []byte) error {
	tmp, err := afero.TempFile(c.fs, filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = c.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = c.fs.Remove(tmpName)
		return err
	}
	if err := c.fs.Rename(tmpName, path); err != nil {
		_ = c.fs.Remove(tmpName)
		return err
	}
	return nil
}

// computeOutputHash calculates the hash of an entry's data and metadata.
// It is recorded at write time and checked on every read.
func (c *Cache) computeOutputHash(outputData map[string][]byte, outputMeta map[string]string) (string, error) {
	h := c.newHash()

	// Sort keys for deterministic ordering
	dataKeys := make([]string, 0, len(outputData))
	for k := range outputData {
		dataKeys = append(dataKeys, k)
	}
	sort.Strings(dataKeys)

	fmt.Fprintf(h, "%d", len(dataKeys))
	for _, k := range dataKeys {
		fmt.Fprintf(h, "%d:%s%d:", len(k), k, len(outputData[k]))
		if _, err := h.Write(outputData[k]); err != nil {
			return "", err
		}
	}

	metaKeys := make([]string, 0, len(outputMeta))
	for k := range outputMeta {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)

	fmt.Fprintf(h, "%d", len(metaKeys))
	for _, k := range metaKeys {
		v := outputMeta[k]
		fmt.Fprintf(h, "%d:%s%d:%s", len(k), k, len(v), v)
	}

	return sum(h), nil
}
