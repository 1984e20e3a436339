package jsonmin

import (
	"fmt"
	"sync"
)

// Source is an immutable asset payload. The pointer identifies the
// content for the duration of a build pass: fingerprints are memoized per
// *Source, so a registry must hand out a new Source whenever the content
// changes.
type Source struct {
	data []byte
}

// NewSource copies data into a new Source.
func NewSource(data []byte) *Source {
	return &Source{data: append([]byte(nil), data...)}
}

// Bytes returns the payload. Callers must not modify it.
func (s *Source) Bytes() []byte {
	return s.data
}

// Size returns the payload length in bytes.
func (s *Source) Size() int {
	return len(s.data)
}

// Info is the metadata the host keeps next to an asset.
type Info struct {
	Minimized bool              // set once an optimizer has finalized the asset
	Meta      map[string]string // host-defined extras
}

// Merge returns i updated with other. Flags are sticky: a minimized asset
// stays minimized.
func (i Info) Merge(other Info) Info {
	out := Info{Minimized: i.Minimized || other.Minimized}
	if len(i.Meta)+len(other.Meta) > 0 {
		out.Meta = make(map[string]string, len(i.Meta)+len(other.Meta))
		for k, v := range i.Meta {
			out.Meta[k] = v
		}
		for k, v := range other.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// Asset is a named payload tracked by the host build.
type Asset struct {
	Name   string
	Source *Source
	Info   Info
}

// Registry is the host's asset set as seen by the minimizer. Each host
// build tool gets its own adapter. Implementations must be safe for
// concurrent use.
type Registry interface {
	// Names enumerates the current assets in a stable order.
	Names() []string
	// Asset returns the current content and metadata of an asset.
	Asset(name string) (Asset, bool)
	// UpdateAsset replaces the content of an asset and merges info into
	// its metadata.
	UpdateAsset(name string, src *Source, info Info) error
	// Context names the build for error messages.
	Context() string
}

// Assets returns the current assets of reg in enumeration order.
func Assets(reg Registry) []Asset {
	names := reg.Names()
	assets := make([]Asset, 0, len(names))
	for _, name := range names {
		if a, ok := reg.Asset(name); ok {
			assets = append(assets, a)
		}
	}
	return assets
}

// MapRegistry is an in-memory Registry. It is the host used by tests and
// by tools that assemble assets themselves.
type MapRegistry struct {
	mu      sync.RWMutex
	context string
	names   []string
	assets  map[string]Asset
}

// NewMapRegistry returns an empty registry for the given build context.
func NewMapRegistry(context string) *MapRegistry {
	return &MapRegistry{
		context: context,
		assets:  make(map[string]Asset),
	}
}

// Emit adds or replaces an asset. Emitting after a Run and running again
// is how assets produced late in a pass get processed.
func (r *MapRegistry) Emit(name string, data []byte, info Info) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.assets[name]; !ok {
		r.names = append(r.names, name)
	}
	r.assets[name] = Asset{Name: name, Source: NewSource(data), Info: info}
}

// Names implements Registry.
func (r *MapRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.names...)
}

// Asset implements Registry.
func (r *MapRegistry) Asset(name string) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assets[name]
	return a, ok
}

// UpdateAsset implements Registry.
func (r *MapRegistry) UpdateAsset(name string, src *Source, info Info) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assets[name]
	if !ok {
		return fmt.Errorf("asset %s does not exist", name)
	}
	a.Source = src
	a.Info = a.Info.Merge(info)
	r.assets[name] = a
	return nil
}

// Context implements Registry.
func (r *MapRegistry) Context() string {
	return r.context
}

// Bytes returns the current content of an asset, or nil.
func (r *MapRegistry) Bytes(name string) []byte {
	a, ok := r.Asset(name)
	if !ok || a.Source == nil {
		return nil
	}
	return a.Source.Bytes()
}
