package jsonmin

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options configures a Minimizer.
type Options struct {
	Test             Rule // defaults to DefaultTest
	Include          Rule
	Exclude          Rule
	MinimizerOptions FormatOptions
}

// Minimizer reformats the JSON assets of a build and caches the results.
// A Minimizer holds no per-build state; the same instance may run many
// build passes, concurrently if they use different registries.
type Minimizer struct {
	opts        Options
	hashFunc    HashFunc
	version     string
	parallelism int
	logger      zerolog.Logger
	optionsTag  string
}

// MinimizerOption configures a Minimizer.
type MinimizerOption func(*Minimizer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger zerolog.Logger) MinimizerOption {
	return func(m *Minimizer) {
		m.logger = logger
	}
}

// WithFingerprintHash sets the hash used to fingerprint asset content.
// The default is xxHash64.
func WithFingerprintHash(hashFunc HashFunc) MinimizerOption {
	return func(m *Minimizer) {
		m.hashFunc = hashFunc
	}
}

// WithVersion adds v to every fingerprint. Bump it to invalidate cached
// outputs, e.g. after changing a ReplacerFunc.
func WithVersion(v string) MinimizerOption {
	return func(m *Minimizer) {
		m.version = v
	}
}

// WithParallelism bounds the number of assets processed at once.
// Zero or less means no bound.
func WithParallelism(n int) MinimizerOption {
	return func(m *Minimizer) {
		m.parallelism = n
	}
}

// New validates opts and returns a Minimizer. Invalid options yield a
// *ValidationError.
func New(opts Options, options ...MinimizerOption) (*Minimizer, error) {
	var errs []error
	errs = append(errs, opts.Test.validate(keyTest)...)
	errs = append(errs, opts.Include.validate(keyInclude)...)
	errs = append(errs, opts.Exclude.validate(keyExclude)...)
	if err := newValidationError(errs); err != nil {
		return nil, err
	}

	m := &Minimizer{
		opts:     opts,
		hashFunc: defaultHashFunc,
		logger:   zerolog.Nop(),
	}
	for _, option := range options {
		option(m)
	}

	h := m.hashFunc()
	fmt.Fprintf(h, "%s;version=%q", opts.MinimizerOptions.fingerprint(), m.version)
	m.optionsTag = sum(h)

	return m, nil
}

// Options returns the options the Minimizer was built with.
func (m *Minimizer) Options() Options {
	return m.opts
}

// Run processes every eligible asset of reg. Each asset is handled by
// its own goroutine: the cached output is published when store has one,
// otherwise the asset is formatted, stored and published. Failures are
// collected in the report; Run itself never fails and returns once every
// asset has been handled.
//
// Run may be called again on the same registry after new assets were
// emitted; assets it already published are marked minimized and skipped.
func (m *Minimizer) Run(reg Registry, store Store) *Report {
	start := time.Now()
	names := Select(Assets(reg), m.opts)

	report := &Report{
		Context:  reg.Context(),
		Outcomes: make([]Outcome, len(names)),
	}

	m.logger.Debug().
		Str("context", report.Context).
		Int("selected", len(names)).
		Msg("Minimizing assets")

	fingerprints := newFingerprinter(m.hashFunc, m.optionsTag)

	var g errgroup.Group
	if m.parallelism > 0 {
		g.SetLimit(m.parallelism)
	}
	for i, name := range names {
		g.Go(func() error {
			report.Outcomes[i] = m.process(reg, store, fingerprints, name)
			return nil
		})
	}
	_ = g.Wait()

	report.finish(time.Since(start))

	m.logger.Debug().
		Str("context", report.Context).
		Int("published", report.Stats.Published).
		Int("hits", report.Stats.Hits).
		Int("formatted", report.Stats.Formatted).
		Int("failed", report.Stats.Failed).
		Dur("duration", report.Duration).
		Msg("Minimizing finished")

	return report
}

// process runs one asset through lookup, format, store and publish.
func (m *Minimizer) process(reg Registry, store Store, fingerprints *fingerprinter, name string) (out Outcome) {
	out.Asset = name
	logger := m.logger.With().Str("asset", name).Logger()

	defer func() {
		if r := recover(); r != nil {
			out.Status = StatusFailed
			out.Err = &AssetError{Asset: name, Context: reg.Context(), Err: fmt.Errorf("panic: %v", r)}
			logger.Error().Interface("panic", r).Msg("Asset processing panicked")
		}
	}()

	asset, ok := reg.Asset(name)
	if !ok || asset.Info.Minimized {
		// Removed, or finalized by a nested pass since selection.
		logger.Trace().Bool("exists", ok).Msg("Skipping asset")
		out.Status = StatusSkipped
		return out
	}

	var content []byte
	if asset.Source != nil {
		content = asset.Source.Bytes()
	}
	fingerprint := fingerprints.get(asset.Source)

	output, err := store.Lookup(name, fingerprint)
	switch {
	case err == nil:
		out.Hit = true
		logger.Trace().Str("fingerprint", fingerprint).Msg("Cache hit")
	case errors.Is(err, ErrCacheMiss):
		logger.Trace().Str("fingerprint", fingerprint).Msg("Cache miss")
	default:
		out.LookupFailed = true
		logger.Debug().Err(&CacheUnavailableError{Op: "lookup", Err: err}).Msg("Treating cache failure as a miss")
	}

	if !out.Hit {
		out.Formatted = true
		output, err = Format(content, m.opts.MinimizerOptions)
		if err != nil {
			logger.Debug().Err(err).Msg("Formatting failed")
			out.Status = StatusFailed
			out.Err = &AssetError{Asset: name, Context: reg.Context(), Err: err}
			return out
		}

		if err := store.Store(name, fingerprint, output); err != nil {
			out.StoreFailed = true
			logger.Debug().Err(&CacheUnavailableError{Op: "store", Err: err}).Msg("Could not cache output")
		} else {
			out.Stored = true
		}
	}

	if err := reg.UpdateAsset(name, NewSource(output), Info{Minimized: true}); err != nil {
		out.Status = StatusFailed
		out.Err = &AssetError{Asset: name, Context: reg.Context(), Err: fmt.Errorf("failed to update asset: %w", err)}
		return out
	}

	out.Size = len(output)
	out.Status = StatusFormatted
	if out.Hit {
		out.Status = StatusCached
	}
	logger.Trace().Str("status", out.Status.String()).Int("size", out.Size).Msg("Published asset")
	return out
}
