package jsonmin

import (
	"errors"
	"time"
)

// Status is what happened to one selected asset.
type Status int

const (
	// StatusSkipped means the asset vanished or was finalized between
	// selection and processing.
	StatusSkipped Status = iota
	// StatusFormatted means the asset was formatted and published.
	StatusFormatted
	// StatusCached means a cached output was published.
	StatusCached
	// StatusFailed means the asset was left untouched.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusFormatted:
		return "formatted"
	case StatusCached:
		return "cached"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records how one asset went through a Run.
type Outcome struct {
	Asset  string
	Status Status
	Err    error // set when Status is StatusFailed
	Size   int   // published size in bytes

	Hit          bool // the store had the output
	Formatted    bool // the formatter ran
	Stored       bool // the output was written to the store
	StoreFailed  bool
	LookupFailed bool
}

// Published reports whether the asset now holds minimized content.
func (o Outcome) Published() bool {
	return o.Status == StatusFormatted || o.Status == StatusCached
}

// RunStats are the counters of a Run.
type RunStats struct {
	Selected       int
	Skipped        int
	Hits           int
	Misses         int
	Formatted      int
	Stored         int
	StoreFailures  int
	LookupFailures int
	Published      int
	Failed         int
}

// Report is the result of a Run. Outcomes follow the selection order.
type Report struct {
	Context  string
	Outcomes []Outcome
	Errors   []error
	Stats    RunStats
	Duration time.Duration
}

// Err joins the asset failures into one error, or returns nil when every
// asset succeeded. Each failure stays reachable with errors.As.
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// Outcome returns the outcome for the named asset.
func (r *Report) Outcome(name string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.Asset == name {
			return o, true
		}
	}
	return Outcome{}, false
}

func (r *Report) finish(d time.Duration) {
	r.Duration = d
	r.Stats = RunStats{Selected: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		s := &r.Stats
		switch o.Status {
		case StatusSkipped:
			s.Skipped++
			continue
		case StatusFailed:
			s.Failed++
			r.Errors = append(r.Errors, o.Err)
		default:
			s.Published++
		}
		if o.Hit {
			s.Hits++
		} else {
			s.Misses++
		}
		if o.Formatted {
			s.Formatted++
		}
		if o.Stored {
			s.Stored++
		}
		if o.StoreFailed {
			s.StoreFailures++
		}
		if o.LookupFailed {
			s.LookupFailures++
		}
	}
}
