package jsonmin

import (
	"errors"
	"fmt"
	"sort"
)

// KeyBuilder provides a fluent API for building cache keys.
// It validates components eagerly and accumulates errors instead of panicking.
// Errors are only surfaced when Get() or Commit() is called.
type KeyBuilder struct {
	cache            *Cache
	extras           map[string]string
	errors           []error // Accumulated validation errors
	accumulateErrors bool    // If true, accumulate all errors; if false, fail-fast
}

// Key represents an opaque cache key.
// Users should not construct this directly, use Cache.Key() instead.
type Key struct {
	extras map[string]string
	cache  *Cache
	errors []error // Validation errors from key building
}

// errEmptyKey is reported for keys without any component.
var errEmptyKey = errors.New("key has no components")

// String adds a key-value pair to the cache key.
func (kb *KeyBuilder) String(key, value string) *KeyBuilder {
	if key == "" && (kb.accumulateErrors || len(kb.errors) == 0) {
		kb.errors = append(kb.errors, fmt.Errorf("empty key component name (value %q)", value))
	}
	if kb.extras == nil {
		kb.extras = make(map[string]string)
	}
	kb.extras[key] = value
	return kb
}

// Version is sugar for String("version", v).
func (kb *KeyBuilder) Version(v string) *KeyBuilder {
	return kb.String("version", v)
}

// Build finalizes the key builder and returns an opaque Key.
// Validation errors are not returned here but will be surfaced
// when the key is used in Get() or Commit().
func (kb *KeyBuilder) Build() Key {
	errs := append([]error(nil), kb.errors...)
	if len(kb.extras) == 0 {
		errs = append(errs, errEmptyKey)
	}
	return Key{
		extras: kb.extras,
		cache:  kb.cache,
		errors: errs,
	}
}

// Hash computes and returns the hash of this key as a hex string.
// Returns empty string if there are validation errors.
func (kb *KeyBuilder) Hash() string {
	return kb.Build().Hash()
}

// Hash returns the hash of this key as a hex string.
// This is useful for debugging and logging.
// Returns empty string if there are validation errors.
func (k Key) Hash() string {
	hash, err := k.computeHash()
	if err != nil {
		return ""
	}
	return hash
}

// describe lists the key components for manifests.
func (k Key) describe() []string {
	keys := k.sortedExtraKeys()
	descs := make([]string, len(keys))
	for i, key := range keys {
		descs[i] = fmt.Sprintf("%s=%s", key, k.extras[key])
	}
	return descs
}

func (k Key) sortedExtraKeys() []string {
	keys := make([]string, 0, len(k.extras))
	for key := range k.extras {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// computeHash calculates the hash for this key.
// Returns an error if there are validation errors from key building.
func (k Key) computeHash() (string, error) {
	// Check for validation errors first
	if len(k.errors) > 0 {
		return "", newValidationError(k.errors)
	}

	h := k.cache.newHash()

	// Hash extras in sorted order for determinism. Lengths are written
	// first so that ("ab","c") and ("a","bc") differ.
	for _, key := range k.sortedExtraKeys() {
		value := k.extras[key]
		fmt.Fprintf(h, "%d:%s%d:%s", len(key), key, len(value), value)
	}

	return sum(h), nil
}
