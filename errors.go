package jsonmin

import (
	"errors"
	"fmt"
	"strings"
)

// ToolName is the name used when reporting asset failures to the host.
const ToolName = "Json Minimizer"

// Sentinel errors
var (
	// ErrCacheMiss is returned when a cache entry is not found.
	ErrCacheMiss = errors.New("cache miss")
)

// ValidationError represents one or more validation errors that occurred
// while building options, cache keys or cache writes.
type ValidationError struct {
	Errors []error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", ve.Errors[0])
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "validation failed with %d errors:\n", len(ve.Errors))
	for i, err := range ve.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ve *ValidationError) Unwrap() []error {
	return ve.Errors
}

// newValidationError creates a ValidationError from a slice of errors.
// Returns nil if the slice is empty.
func newValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}

// MalformedInputError is returned by Format when the input is not
// syntactically valid JSON. Line and Column are 1-based.
type MalformedInputError struct {
	Line   int
	Column int
	Offset int64
	Err    error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed JSON at line %d, column %d: %v", e.Line, e.Column, e.Err)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// newMalformedInputError locates offset inside input.
func newMalformedInputError(input []byte, offset int64, err error) *MalformedInputError {
	if offset > int64(len(input)) {
		offset = int64(len(input))
	}
	if offset < 0 {
		offset = 0
	}
	line, col := 1, 1
	for _, b := range input[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return &MalformedInputError{Line: line, Column: col, Offset: offset, Err: err}
}

// CacheUnavailableError wraps a cache backend failure. The minimizer
// treats it as a miss on lookup and ignores it on store.
type CacheUnavailableError struct {
	Op  string // "lookup" or "store"
	Err error
}

func (e *CacheUnavailableError) Error() string {
	return fmt.Sprintf("cache %s unavailable: %v", e.Op, e.Err)
}

func (e *CacheUnavailableError) Unwrap() error {
	return e.Err
}

// AssetError describes the failure of a single asset in a build pass.
type AssetError struct {
	Asset   string
	Context string
	Err     error
}

// Error renders the message the host appends to its build errors.
func (e *AssetError) Error() string {
	return fmt.Sprintf("%q in %q from %s:\n%v", e.Asset, e.Context, ToolName, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}
