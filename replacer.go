package jsonmin

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type omit struct{}

// Omit is the value a ReplacerFunc returns to drop a pair from the
// output. Inside arrays the element becomes null instead.
var Omit any = omit{}

// Replacer decides which object members are serialized and may rewrite
// each key/value pair on the way out.
type Replacer interface {
	// Members returns the keys of obj to serialize, in output order.
	Members(obj *Object) []string
	// Replace is called once per key/value pair, parents before children.
	// The root value is offered under the empty key and array elements
	// under their decimal index.
	Replace(key string, value any) any
	// String describes the replacer. It is part of the cache fingerprint.
	String() string
}

// AllowList keeps only the listed keys, at every object depth, and emits
// them in list order.
type AllowList []string

// Members implements Replacer.
func (a AllowList) Members(obj *Object) []string {
	seen := make(map[string]struct{}, len(a))
	keys := make([]string, 0, len(a))
	for _, k := range a {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := obj.values[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Replace implements Replacer.
func (a AllowList) Replace(_ string, value any) any {
	return value
}

func (a AllowList) String() string {
	return "allow:" + strconv.Quote(strings.Join(a, "\x00"))
}

// ReplacerFunc transforms each key/value pair before it is serialized.
// Return Omit to drop the pair.
type ReplacerFunc func(key string, value any) any

// Members implements Replacer.
func (f ReplacerFunc) Members(obj *Object) []string {
	return obj.keys
}

// Replace implements Replacer.
func (f ReplacerFunc) Replace(key string, value any) any {
	return f(key, value)
}

// String implements Replacer. Functions cannot be fingerprinted, so
// callers changing a ReplacerFunc between builds should bump the cache
// version.
func (f ReplacerFunc) String() string {
	return "func"
}

// Indent is the unit of indentation used when pretty printing. The zero
// value produces compact output.
type Indent string

// maxIndent is the widest indentation JSON.stringify honours.
const maxIndent = 10

// IndentWidth returns an indentation of n spaces, clamped to [0, 10].
func IndentWidth(n int) Indent {
	if n < 1 {
		return ""
	}
	if n > maxIndent {
		n = maxIndent
	}
	return Indent(strings.Repeat(" ", n))
}

// IndentString uses the first ten characters of s as indentation.
func IndentString(s string) Indent {
	if utf8.RuneCountInString(s) <= maxIndent {
		return Indent(s)
	}
	i, n := 0, 0
	for n < maxIndent {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		n++
	}
	return Indent(s[:i])
}

// FormatOptions controls how Format re-serializes its input.
type FormatOptions struct {
	Replacer Replacer // nil keeps every member
	Indent   Indent   // empty means compact
}

// fingerprint describes the options for cache keys.
func (o FormatOptions) fingerprint() string {
	replacer := "none"
	if o.Replacer != nil {
		replacer = o.Replacer.String()
	}
	return fmt.Sprintf("replacer=%s;indent=%q", replacer, string(o.Indent))
}
