package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gophersatwork/jsonmin"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// EnvPrefix prefixes the environment variables that override
// configuration. JSONMIN_CACHE_TYPE sets cache.type.
const EnvPrefix = "JSONMIN_"

// Cache types.
const (
	CacheFilesystem = "filesystem"
	CacheMemory     = "memory"
	CacheNone       = "none"
)

// DefaultFileNames are looked up in the working directory when no
// configuration file is given explicitly.
var DefaultFileNames = []string{
	"jsonmin.toml", ".jsonmin.toml",
	"jsonmin.yaml", "jsonmin.yml",
	"jsonmin.json", "jsonmin.jsonc",
}

// Config is the configuration of the jsonmin command.
type Config struct {
	// Minimizer holds the minimizer options, validated by
	// jsonmin.ParseOptions.
	Minimizer   map[string]any `koanf:"minimizer"`
	Cache       CacheConfig    `koanf:"cache"`
	Parallelism int            `koanf:"parallelism"`
}

// CacheConfig selects and tunes the cache store.
type CacheConfig struct {
	Type        string `koanf:"type"`
	Directory   string `koanf:"directory"`
	Compression string `koanf:"compression"`
	Hash        string `koanf:"hash"`
	Version     string `koanf:"version"`
}

// DefaultCacheDirectory returns the cache directory under XDG_CACHE_HOME.
func DefaultCacheDirectory() string {
	return filepath.Join(xdg.CacheHome, "jsonmin")
}

func defaults() map[string]any {
	return map[string]any{
		"cache.type":        CacheFilesystem,
		"cache.directory":   DefaultCacheDirectory(),
		"cache.compression": "none",
		"cache.hash":        "xxhash",
		"cache.version":     "",
		"parallelism":       0,
	}
}

// Load builds the configuration from defaults, the configuration file at
// path and the environment, in increasing priority. An empty path looks
// for one of DefaultFileNames in the working directory.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path == "" {
		path = findConfigFile(".")
	}
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// 3. Environment
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range DefaultFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate checks the cache settings and the minimizer options.
func (c *Config) Validate() error {
	var errs []error

	switch c.Cache.Type {
	case CacheFilesystem, CacheMemory, CacheNone:
	default:
		errs = append(errs, fmt.Errorf("cache.type must be one of %s, %s, %s; got %q",
			CacheFilesystem, CacheMemory, CacheNone, c.Cache.Type))
	}
	if c.Cache.Type == CacheFilesystem && c.Cache.Directory == "" {
		errs = append(errs, errors.New("cache.directory is required for a filesystem cache"))
	}
	if _, err := jsonmin.ParseCompression(c.Cache.Compression); err != nil {
		errs = append(errs, fmt.Errorf("cache.compression: %w", err))
	}
	if _, err := jsonmin.HashFuncByName(c.Cache.Hash); err != nil {
		errs = append(errs, fmt.Errorf("cache.hash: %w", err))
	}
	if c.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("parallelism must not be negative, got %d", c.Parallelism))
	}
	if _, err := jsonmin.ParseOptions(c.Minimizer); err != nil {
		errs = append(errs, fmt.Errorf("minimizer: %w", err))
	}

	return errors.Join(errs...)
}

// Options returns the minimizer options.
func (c *Config) Options() (jsonmin.Options, error) {
	return jsonmin.ParseOptions(c.Minimizer)
}

// MinimizerOptions returns the options the minimizer is built with.
func (c *Config) MinimizerOptions(logger zerolog.Logger) []jsonmin.MinimizerOption {
	hashFunc, err := jsonmin.HashFuncByName(c.Cache.Hash)
	if err != nil {
		hashFunc = jsonmin.HashXXHash
	}
	return []jsonmin.MinimizerOption{
		jsonmin.WithLogger(logger),
		jsonmin.WithFingerprintHash(hashFunc),
		jsonmin.WithVersion(c.Cache.Version),
		jsonmin.WithParallelism(c.Parallelism),
	}
}

// OpenStore returns the store selected by cache.type.
func (c *Config) OpenStore(logger zerolog.Logger) (jsonmin.Store, error) {
	switch c.Cache.Type {
	case CacheNone:
		return jsonmin.NopStore{}, nil
	case CacheMemory:
		return jsonmin.NewMemoryStore(), nil
	default:
		return c.OpenCache(logger)
	}
}

// OpenCache opens the durable cache in cache.directory. cache.hash picks
// the function for entry keys and output hashes as well as fingerprints.
func (c *Config) OpenCache(logger zerolog.Logger) (*jsonmin.Cache, error) {
	hashFunc, err := jsonmin.HashFuncByName(c.Cache.Hash)
	if err != nil {
		return nil, fmt.Errorf("cache.hash: %w", err)
	}
	options := []jsonmin.Option{
		jsonmin.WithCacheLogger(logger),
		jsonmin.WithHashFunc(hashFunc),
	}
	codec, err := jsonmin.ParseCompression(c.Cache.Compression)
	if err != nil {
		return nil, fmt.Errorf("cache.compression: %w", err)
	}
	options = append(options, jsonmin.WithCompressionCodec(codec))
	cache, err := jsonmin.Open(c.Cache.Directory, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache in %s: %w", c.Cache.Directory, err)
	}
	return cache, nil
}
