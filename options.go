package jsonmin

import (
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// WithFs sets a custom filesystem for the cache.
// This is primarily useful for testing with in-memory filesystems.
//
// Example:
//
//	cache, err := jsonmin.Open(".cache", jsonmin.WithFs(afero.NewMemMapFs()))
func WithFs(fs afero.Fs) Option {
	return func(c *Cache) {
		c.fs = fs
	}
}

// WithHashFunc sets a custom hash function for cache keys.
// The default is xxHash64.
//
// Note: Changing the hash function will invalidate existing cache entries.
func WithHashFunc(hashFunc HashFunc) Option {
	return func(c *Cache) {
		c.hashFunc = hashFunc
	}
}

// WithNowFunc sets a custom time function for the cache.
// This is primarily useful for testing with deterministic timestamps.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(c *Cache) {
		c.nowFunc = nowFunc
	}
}

// WithAccumulateErrors configures the cache to accumulate all validation errors
// instead of stopping at the first error (fail-fast).
func WithAccumulateErrors() Option {
	return func(c *Cache) {
		c.accumulateErrors = true
	}
}

// WithCompression stores new entries zstd-compressed. Entries written
// either way stay readable.
func WithCompression() Option {
	return WithCompressionCodec(CompressionZstd)
}

// WithCompressionCodec stores new entries with the named codec, one of
// CompressionNone, CompressionZstd or CompressionLZ4. Open rejects any
// other name.
func WithCompressionCodec(codec string) Option {
	return func(c *Cache) {
		c.compression = codec
	}
}

// WithCacheLogger sets the logger used for best-effort failures.
func WithCacheLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}
