package jsonmin

import (
	"errors"
	"reflect"
	"testing"
)

func TestMatchObject(t *testing.T) {
	tests := []struct {
		name  string
		opts  Options
		asset string
		want  bool
	}{
		{name: "default test", asset: "data.json", want: true},
		{name: "default test with query", asset: "data.json?v=3", want: true},
		{name: "default test ignores case", asset: "DATA.JSON", want: true},
		{name: "default test rejects others", asset: "main.js", want: false},
		{name: "default test anchors the extension", asset: "data.json.map", want: false},
		{
			name:  "custom test",
			opts:  Options{Test: Rule{Literal(".webmanifest")}},
			asset: "site.webmanifest",
			want:  true,
		},
		{
			name:  "include narrows",
			opts:  Options{Include: Rule{Literal("locales/")}},
			asset: "config.json",
			want:  false,
		},
		{
			name:  "include any of",
			opts:  Options{Include: Rule{Literal("locales/"), MustRegexp(`^i18n/`)}},
			asset: "i18n/en.json",
			want:  true,
		},
		{
			name:  "exclude wins over include",
			opts:  Options{Include: Rule{Literal("locales/")}, Exclude: Rule{Literal("locales/")}},
			asset: "locales/en.json",
			want:  false,
		},
		{
			name:  "literal is a substring match",
			opts:  Options{Exclude: Rule{Literal("vendor")}},
			asset: "assets/vendor/lib.json",
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchObject(tt.opts, tt.asset); got != tt.want {
				t.Fatalf("MatchObject(%q) = %v, want %v", tt.asset, got, tt.want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	assets := []Asset{
		{Name: "a.json"},
		{Name: "b.js"},
		{Name: "c.json", Info: Info{Minimized: true}},
		{Name: "d.JSON"},
		{Name: "vendor/e.json"},
	}

	got := Select(assets, Options{Exclude: Rule{Literal("vendor/")}})
	want := []string{"a.json", "d.JSON"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Select() = %q, want %q", got, want)
	}

	if got := Select(nil, Options{}); len(got) != 0 {
		t.Fatalf("Select(nil) = %q, want none", got)
	}
}

func TestNewValidatesRules(t *testing.T) {
	_, err := New(Options{
		Test:    Rule{nil},
		Exclude: Rule{Regexp{}},
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(ve.Errors), err)
	}
}
