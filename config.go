package jsonmin

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Option keys accepted by ParseOptions.
const (
	keyTest             = "test"
	keyInclude          = "include"
	keyExclude          = "exclude"
	keyMinimizerOptions = "minimizerOptions"
	keyReplacer         = "replacer"
	keySpace            = "space"
)

// ParseOptions builds Options from a loosely typed map, as produced by
// configuration files. Unknown keys are rejected.
//
// Rules are a string or a list of strings. A string written as
// /expr/flags (flags among i, m, s) is a regular expression; any other
// string is matched as a literal substring. minimizerOptions accepts
// replacer (a list of keys to keep) and space (a number of spaces or an
// indentation string).
func ParseOptions(raw map[string]any) (Options, error) {
	var opts Options
	var errs []error

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		var err error
		switch key {
		case keyTest:
			opts.Test, err = parseRule(key, value)
		case keyInclude:
			opts.Include, err = parseRule(key, value)
		case keyExclude:
			opts.Exclude, err = parseRule(key, value)
		case keyMinimizerOptions:
			opts.MinimizerOptions, err = parseFormatOptions(value)
		default:
			err = fmt.Errorf("options has an unknown property %q; these properties are valid: %s",
				key, strings.Join([]string{keyTest, keyInclude, keyExclude, keyMinimizerOptions}, ", "))
		}
		if err != nil {
			errs = append(errs, err)
		}
	}

	if err := newValidationError(errs); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func parseRule(field string, value any) (Rule, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case Rule:
		return t, nil
	case Matcher:
		return Rule{t}, nil
	case *regexp.Regexp:
		return Rule{Regexp{t}}, nil
	case string:
		m, err := parseMatcher(t)
		if err != nil {
			return nil, fmt.Errorf("options.%s: %w", field, err)
		}
		return Rule{m}, nil
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return parseRule(field, items)
	case []any:
		rule := make(Rule, 0, len(t))
		for i, item := range t {
			var m Matcher
			var err error
			switch it := item.(type) {
			case string:
				m, err = parseMatcher(it)
			case Matcher:
				m = it
			case *regexp.Regexp:
				m = Regexp{it}
			default:
				err = fmt.Errorf("should be a string or a regular expression, got %T", item)
			}
			if err != nil {
				return nil, fmt.Errorf("options.%s[%d]: %w", field, i, err)
			}
			rule = append(rule, m)
		}
		return rule, nil
	default:
		return nil, fmt.Errorf("options.%s should be a string, a regular expression or a list of them, got %T", field, value)
	}
}

// parseMatcher turns "/expr/flags" into a Regexp and anything else into a
// Literal.
func parseMatcher(s string) (Matcher, error) {
	if len(s) < 2 || s[0] != '/' {
		return Literal(s), nil
	}
	end := strings.LastIndex(s, "/")
	if end == 0 {
		return Literal(s), nil
	}
	expr, flags := s[1:end], s[end+1:]
	for _, f := range flags {
		if !strings.ContainsRune("ims", f) {
			return Literal(s), nil
		}
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regular expression %s: %w", s, err)
	}
	return Regexp{re}, nil
}

func parseFormatOptions(value any) (FormatOptions, error) {
	var opts FormatOptions
	switch t := value.(type) {
	case nil:
		return opts, nil
	case FormatOptions:
		return t, nil
	case map[string]any:
		var errs []string
		for _, key := range sortedKeys(t) {
			var err error
			switch key {
			case keyReplacer:
				opts.Replacer, err = parseReplacer(t[key])
			case keySpace:
				opts.Indent, err = parseSpace(t[key])
			default:
				err = fmt.Errorf("unknown property %q; these properties are valid: %s, %s", key, keyReplacer, keySpace)
			}
			if err != nil {
				errs = append(errs, err.Error())
			}
		}
		if len(errs) > 0 {
			return FormatOptions{}, fmt.Errorf("options.%s: %s", keyMinimizerOptions, strings.Join(errs, "; "))
		}
		return opts, nil
	default:
		return opts, fmt.Errorf("options.%s should be an object, got %T", keyMinimizerOptions, value)
	}
}

func parseReplacer(value any) (Replacer, error) {
	switch t := value.(type) {
	case nil:
		return nil, nil
	case Replacer:
		return t, nil
	case func(string, any) any:
		return ReplacerFunc(t), nil
	case []string:
		return AllowList(t), nil
	case []any:
		list := make(AllowList, 0, len(t))
		for i, item := range t {
			switch it := item.(type) {
			case string:
				list = append(list, it)
			case int:
				list = append(list, formatNumber(float64(it)))
			case int64:
				list = append(list, formatNumber(float64(it)))
			case float64:
				list = append(list, formatNumber(it))
			default:
				return nil, fmt.Errorf("%s[%d] should be a string or a number, got %T", keyReplacer, i, item)
			}
		}
		return list, nil
	default:
		return nil, fmt.Errorf("%s should be a list of keys, got %T", keyReplacer, value)
	}
}

func parseSpace(value any) (Indent, error) {
	switch t := value.(type) {
	case nil:
		return "", nil
	case Indent:
		return t, nil
	case string:
		return IndentString(t), nil
	case int:
		return IndentWidth(t), nil
	case int64:
		return IndentWidth(int(max(min(t, maxIndent), 0))), nil
	case float64:
		if math.IsNaN(t) {
			return "", nil
		}
		return IndentWidth(int(math.Max(math.Min(math.Floor(t), maxIndent), 0))), nil
	default:
		return "", fmt.Errorf("%s should be a number or a string, got %T", keySpace, value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
