package jsonmin

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingStore wraps a Store and counts calls.
type countingStore struct {
	inner   Store
	lookups atomic.Int32
	stores  atomic.Int32
}

func (s *countingStore) Lookup(name, fingerprint string) ([]byte, error) {
	s.lookups.Add(1)
	return s.inner.Lookup(name, fingerprint)
}

func (s *countingStore) Store(name, fingerprint string, output []byte) error {
	s.stores.Add(1)
	return s.inner.Store(name, fingerprint, output)
}

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Lookup(string, string) ([]byte, error) {
	return nil, errors.New("disk on fire")
}

func (brokenStore) Store(string, string, []byte) error {
	return errors.New("disk on fire")
}

func newTestMinimizer(t *testing.T, opts Options, options ...MinimizerOption) *Minimizer {
	t.Helper()
	m, err := New(opts, options...)
	if err != nil {
		t.Fatalf("Failed to create minimizer: %v", err)
	}
	return m
}

func TestRunFormatsSelectedAssets(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("data.json", []byte("{\n  \"b\": 2,\n  \"a\": 1\n}\n"), Info{})
	reg.Emit("main.js", []byte("var a = 1;\n"), Info{})
	reg.Emit("done.json", []byte("{ }"), Info{Minimized: true})

	m := newTestMinimizer(t, Options{})
	report := m.Run(reg, NewMemoryStore())

	if len(report.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", report.Err())
	}
	assertBytesEqual(t, reg.Bytes("data.json"), []byte(`{"b":2,"a":1}`), "data.json")
	assertBytesEqual(t, reg.Bytes("main.js"), []byte("var a = 1;\n"), "main.js")
	assertBytesEqual(t, reg.Bytes("done.json"), []byte("{ }"), "done.json")

	asset, _ := reg.Asset("data.json")
	if !asset.Info.Minimized {
		t.Fatal("expected data.json to be marked minimized")
	}

	want := RunStats{Selected: 1, Misses: 1, Formatted: 1, Stored: 1, Published: 1}
	if report.Stats != want {
		t.Fatalf("unexpected stats:\nwant %+v\ngot  %+v", want, report.Stats)
	}
	if report.Context != "/project" {
		t.Fatalf("unexpected context %q", report.Context)
	}
}

func TestRunIndentsWithOptions(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("data.json", []byte(`{"b":2,"a":1}`), Info{})

	m := newTestMinimizer(t, Options{MinimizerOptions: FormatOptions{Indent: IndentWidth(2)}})
	m.Run(reg, NopStore{})

	assertBytesEqual(t, reg.Bytes("data.json"), []byte("{\n  \"b\": 2,\n  \"a\": 1\n}"), "data.json")
}

func TestRunUsesCache(t *testing.T) {
	cache := OpenTemp()
	store := &countingStore{inner: cache}
	m := newTestMinimizer(t, Options{})

	input := []byte(`{ "a" : [ 1 , 2 ] }`)

	first := NewMapRegistry("/project")
	first.Emit("data.json", input, Info{})
	report := m.Run(first, store)
	if report.Stats.Formatted != 1 || report.Stats.Hits != 0 {
		t.Fatalf("expected a formatted miss on the first build, got %+v", report.Stats)
	}

	// A second build with identical content is served from the cache
	second := NewMapRegistry("/project")
	second.Emit("data.json", input, Info{})
	report = m.Run(second, store)
	if report.Stats.Hits != 1 || report.Stats.Formatted != 0 {
		t.Fatalf("expected a cache hit on the second build, got %+v", report.Stats)
	}
	if o, _ := report.Outcome("data.json"); o.Status != StatusCached {
		t.Fatalf("expected cached status, got %s", o.Status)
	}
	assertBytesEqual(t, second.Bytes("data.json"), []byte(`{"a":[1,2]}`), "cached output")
	if got := store.stores.Load(); got != 1 {
		t.Fatalf("expected 1 store call, got %d", got)
	}

	// Changed content misses
	third := NewMapRegistry("/project")
	third.Emit("data.json", []byte(`{"a":[1,2,3]}`), Info{})
	report = m.Run(third, store)
	if report.Stats.Misses != 1 {
		t.Fatalf("expected a miss after a content change, got %+v", report.Stats)
	}

	// Changed options miss too
	indented := newTestMinimizer(t, Options{MinimizerOptions: FormatOptions{Indent: IndentWidth(2)}})
	fourth := NewMapRegistry("/project")
	fourth.Emit("data.json", input, Info{})
	report = indented.Run(fourth, store)
	if report.Stats.Misses != 1 {
		t.Fatalf("expected a miss after an options change, got %+v", report.Stats)
	}

	// And so does a new cache version
	versioned := newTestMinimizer(t, Options{}, WithVersion("2"))
	fifth := NewMapRegistry("/project")
	fifth.Emit("data.json", input, Info{})
	report = versioned.Run(fifth, store)
	if report.Stats.Misses != 1 {
		t.Fatalf("expected a miss after a version change, got %+v", report.Stats)
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("good.json", []byte(`{"ok": true}`), Info{})
	reg.Emit("bad.json", []byte(`{"bad": }`), Info{})

	store := NewMemoryStore()
	m := newTestMinimizer(t, Options{})
	report := m.Run(reg, store)

	if report.Stats.Failed != 1 || report.Stats.Published != 1 {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	assertBytesEqual(t, reg.Bytes("good.json"), []byte(`{"ok":true}`), "good.json")
	assertBytesEqual(t, reg.Bytes("bad.json"), []byte(`{"bad": }`), "bad.json")

	if len(report.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(report.Errors))
	}
	joined := report.Err()
	var asValidation *ValidationError
	if errors.As(joined, &asValidation) {
		t.Fatalf("asset failures must not be reported as a validation error: %v", joined)
	}
	if !strings.HasPrefix(joined.Error(), `"bad.json" in "/project" from Json Minimizer:`) {
		t.Fatalf("unexpected joined message: %q", joined.Error())
	}
	err := report.Errors[0]
	var assetErr *AssetError
	if !errors.As(err, &assetErr) {
		t.Fatalf("expected AssetError, got %T", err)
	}
	var malformed *MalformedInputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), `"bad.json" in "/project" from Json Minimizer:`+"\n") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if store.Len() != 1 {
		t.Fatalf("expected only the good output to be stored, got %d entries", store.Len())
	}

	if bad, _ := reg.Asset("bad.json"); bad.Info.Minimized {
		t.Fatal("expected the failed asset to stay unminimized")
	}
}

func TestRunToleratesBrokenStore(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("a.json", []byte(`[ 1 ]`), Info{})
	reg.Emit("b.json", []byte(`[ 2 ]`), Info{})

	m := newTestMinimizer(t, Options{})
	report := m.Run(reg, brokenStore{})

	if err := report.Err(); err != nil {
		t.Fatalf("expected cache failures to be tolerated, got %v", err)
	}
	want := RunStats{Selected: 2, Misses: 2, Formatted: 2, StoreFailures: 2, LookupFailures: 2, Published: 2}
	if report.Stats != want {
		t.Fatalf("unexpected stats:\nwant %+v\ngot  %+v", want, report.Stats)
	}
	assertBytesEqual(t, reg.Bytes("a.json"), []byte(`[1]`), "a.json")
}

func TestRunReentrant(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("first.json", []byte(`{ "n": 1 }`), Info{})

	store := &countingStore{inner: NewMemoryStore()}
	m := newTestMinimizer(t, Options{})
	m.Run(reg, store)

	// An asset emitted later in the build is picked up by the next pass,
	// and the already minimized one is left alone.
	reg.Emit("second.json", []byte(`{ "n": 2 }`), Info{})
	report := m.Run(reg, store)

	if report.Stats.Selected != 1 {
		t.Fatalf("expected only the new asset to be selected, got %+v", report.Stats)
	}
	if got := store.lookups.Load(); got != 2 {
		t.Fatalf("expected 2 lookups over both passes, got %d", got)
	}
	assertBytesEqual(t, reg.Bytes("second.json"), []byte(`{"n":2}`), "second.json")
}

func TestRunRecoversPanics(t *testing.T) {
	reg := NewMapRegistry("/project")
	reg.Emit("a.json", []byte(`{"a":1}`), Info{})
	reg.Emit("b.json", []byte(`{"b":1}`), Info{})

	m := newTestMinimizer(t, Options{MinimizerOptions: FormatOptions{
		Replacer: ReplacerFunc(func(key string, value any) any {
			if key == "a" {
				panic("boom")
			}
			return value
		}),
	}})
	report := m.Run(reg, NewMemoryStore())

	if report.Stats.Failed != 1 || report.Stats.Published != 1 {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	o, _ := report.Outcome("a.json")
	if o.Status != StatusFailed || !strings.Contains(o.Err.Error(), "panic: boom") {
		t.Fatalf("unexpected outcome %+v", o)
	}
}

// racingRegistry finalizes an asset between selection and processing.
type racingRegistry struct {
	*MapRegistry
	once sync.Once
}

func (r *racingRegistry) Asset(name string) (Asset, bool) {
	a, ok := r.MapRegistry.Asset(name)
	if name == "late.json" && ok && !a.Info.Minimized {
		// The first lookup comes from selection; the next one sees the
		// asset finalized by someone else.
		first := false
		r.once.Do(func() { first = true })
		if !first {
			_ = r.MapRegistry.UpdateAsset(name, a.Source, Info{Minimized: true})
			a.Info.Minimized = true
		}
	}
	return a, ok
}

func TestRunSkipsAssetsFinalizedConcurrently(t *testing.T) {
	reg := &racingRegistry{MapRegistry: NewMapRegistry("/project")}
	reg.Emit("late.json", []byte(`{ "x": 1 }`), Info{})

	m := newTestMinimizer(t, Options{})
	report := m.Run(reg, NewMemoryStore())

	if report.Stats.Skipped != 1 || report.Stats.Published != 0 {
		t.Fatalf("unexpected stats %+v", report.Stats)
	}
	assertBytesEqual(t, reg.Bytes("late.json"), []byte(`{ "x": 1 }`), "late.json")
}

func TestRunParallelism(t *testing.T) {
	reg := NewMapRegistry("/project")
	for i := range 20 {
		reg.Emit(fmt.Sprintf("asset-%02d.json", i), []byte(fmt.Sprintf(`{ "i": %d }`, i)), Info{})
	}

	var running, peak atomic.Int32
	m := newTestMinimizer(t, Options{MinimizerOptions: FormatOptions{
		Replacer: ReplacerFunc(func(key string, value any) any {
			if key == "" {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				running.Add(-1)
			}
			return value
		}),
	}}, WithParallelism(3))

	report := m.Run(reg, NopStore{})
	if report.Stats.Published != 20 {
		t.Fatalf("expected 20 published assets, got %+v", report.Stats)
	}
	if p := peak.Load(); p > 3 {
		t.Fatalf("expected at most 3 concurrent assets, got %d", p)
	}
	for i, o := range report.Outcomes {
		if want := fmt.Sprintf("asset-%02d.json", i); o.Asset != want {
			t.Fatalf("expected outcome %d for %s, got %s", i, want, o.Asset)
		}
	}
}

func TestStatusString(t *testing.T) {
	for status, want := range map[Status]string{
		StatusSkipped:   "skipped",
		StatusFormatted: "formatted",
		StatusCached:    "cached",
		StatusFailed:    "failed",
		Status(42):      "unknown",
	} {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", int(status), got, want)
		}
	}
}
