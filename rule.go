package jsonmin

import (
	"fmt"
	"regexp"
	"strings"
)

// Matcher tests an asset name.
type Matcher interface {
	Match(name string) bool
	String() string
}

// Literal matches names that contain it.
type Literal string

// Match implements Matcher.
func (l Literal) Match(name string) bool {
	return strings.Contains(name, string(l))
}

func (l Literal) String() string {
	return string(l)
}

// Regexp matches names against a regular expression.
type Regexp struct {
	*regexp.Regexp
}

// MustRegexp compiles expr and panics if it is invalid.
func MustRegexp(expr string) Regexp {
	return Regexp{regexp.MustCompile(expr)}
}

// Match implements Matcher.
func (r Regexp) Match(name string) bool {
	return r.MatchString(name)
}

// Rule is an ordered list of matchers. An empty Rule is absent.
type Rule []Matcher

// matches reports whether any matcher in the rule accepts name.
func (r Rule) matches(name string) bool {
	for _, m := range r {
		if m.Match(name) {
			return true
		}
	}
	return false
}

func (r Rule) validate(field string) []error {
	var errs []error
	for i, m := range r {
		switch t := m.(type) {
		case nil:
			errs = append(errs, fmt.Errorf("%s[%d]: matcher is nil", field, i))
		case Regexp:
			if t.Regexp == nil {
				errs = append(errs, fmt.Errorf("%s[%d]: regexp is nil", field, i))
			}
		}
	}
	return errs
}

// DefaultTest selects names ending in .json, optionally followed by a
// query string, case-insensitively.
var DefaultTest = Rule{MustRegexp(`(?i)\.json(\?.*)?$`)}

// MatchObject reports whether name passes the test, include and exclude
// rules of opts. Exclusion wins over inclusion.
func MatchObject(opts Options, name string) bool {
	test := opts.Test
	if len(test) == 0 {
		test = DefaultTest
	}
	if !test.matches(name) {
		return false
	}
	if len(opts.Include) > 0 && !opts.Include.matches(name) {
		return false
	}
	if len(opts.Exclude) > 0 && opts.Exclude.matches(name) {
		return false
	}
	return true
}

// Select returns, in input order, the names of the assets eligible for
// minimizing: not already minimized and accepted by MatchObject.
func Select(assets []Asset, opts Options) []string {
	var names []string
	for _, a := range assets {
		if a.Info.Minimized {
			continue
		}
		if !MatchObject(opts, a.Name) {
			continue
		}
		names = append(names, a.Name)
	}
	return names
}
