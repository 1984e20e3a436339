// Package fsregistry exposes a directory tree as a jsonmin.Registry.
//
// Every regular file under the root becomes an asset named by its slash
// separated path relative to the root. Published assets are written back
// in place, or under a separate output directory.
package fsregistry

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/gophersatwork/jsonmin"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Registry is a jsonmin.Registry backed by a directory.
type Registry struct {
	fs     afero.Fs
	root   string
	out    string
	ignore []string
	logger zerolog.Logger

	mu     sync.RWMutex
	names  []string
	assets map[string]jsonmin.Asset
}

// Option configures a Registry.
type Option func(*Registry)

// WithFs sets the filesystem. The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(r *Registry) {
		r.fs = fs
	}
}

// WithOutputDir writes published assets under dir instead of in place.
func WithOutputDir(dir string) Option {
	return func(r *Registry) {
		r.out = dir
	}
}

// WithIgnore skips files matching any of the glob patterns. Patterns are
// matched against asset names and may use "**".
func WithIgnore(patterns ...string) Option {
	return func(r *Registry) {
		r.ignore = append(r.ignore, patterns...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New reads every file under root into a Registry.
func New(root string, options ...Option) (*Registry, error) {
	r := &Registry{
		fs:     afero.NewOsFs(),
		root:   root,
		logger: zerolog.Nop(),
		assets: make(map[string]jsonmin.Asset),
	}
	for _, option := range options {
		option(r)
	}
	if r.out == "" {
		r.out = root
	}

	for _, pattern := range r.ignore {
		if err := validatePattern(pattern); err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	err := afero.Walk(r.fs, r.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if r.ignored(name) {
			r.logger.Trace().Str("asset", name).Msg("Ignoring file")
			return nil
		}

		data, err := afero.ReadFile(r.fs, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		r.names = append(r.names, name)
		r.assets[name] = jsonmin.Asset{Name: name, Source: jsonmin.NewSource(data)}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to read assets from %s: %w", r.root, err)
	}

	sort.Strings(r.names)
	r.logger.Debug().Str("root", r.root).Int("assets", len(r.names)).Msg("Loaded assets")
	return nil
}

func (r *Registry) ignored(name string) bool {
	for _, pattern := range r.ignore {
		if matchesGlobPattern(name, pattern) {
			return true
		}
	}
	return false
}

// Names implements jsonmin.Registry.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Asset implements jsonmin.Registry.
func (r *Registry) Asset(name string) (jsonmin.Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[name]
	return a, ok
}

// UpdateAsset implements jsonmin.Registry. The new content is written to
// the output directory before the asset is replaced in memory. Writes of
// different assets run concurrently.
func (r *Registry) UpdateAsset(name string, src *jsonmin.Source, info jsonmin.Info) error {
	if _, ok := r.Asset(name); !ok {
		return fmt.Errorf("asset %s does not exist", name)
	}

	dst := r.OutputPath(name)
	if err := r.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := afero.WriteFile(r.fs, dst, src.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a := r.assets[name]
	a.Source = src
	a.Info = a.Info.Merge(info)
	r.assets[name] = a
	return nil
}

// Context implements jsonmin.Registry.
func (r *Registry) Context() string {
	return r.root
}

// OutputPath returns where the named asset is written.
func (r *Registry) OutputPath(name string) string {
	return filepath.Join(r.out, filepath.FromSlash(path.Clean(name)))
}
