package jsonmin

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// encoder serializes a value tree the way JSON.stringify does, including
// replacer calls and indentation.
type encoder struct {
	buf      bytes.Buffer
	replacer Replacer
	indent   string
	gap      string
}

// encodeRoot serializes v. The root is offered to the replacer under the
// empty key; if it is omitted the output is empty.
func (e *encoder) encodeRoot(v any) []byte {
	if e.replacer != nil {
		v = e.replacer.Replace("", v)
	}
	v = normalize(v)
	if v == Omit {
		return nil
	}
	e.value(v)
	return e.buf.Bytes()
}

func (e *encoder) value(v any) {
	switch t := v.(type) {
	case nil:
		e.buf.WriteString("null")
	case bool:
		if t {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
	case float64:
		e.buf.WriteString(formatNumber(t))
	case string:
		writeString(&e.buf, t)
	case []any:
		e.array(t)
	case *Object:
		e.object(t)
	default:
		e.buf.WriteString("null")
	}
}

func (e *encoder) object(obj *Object) {
	if obj == nil {
		e.buf.WriteString("null")
		return
	}
	stepback := e.indent
	e.indent += e.gap

	keys := obj.keys
	if e.replacer != nil {
		keys = e.replacer.Members(obj)
	}

	wrote := false
	for _, key := range keys {
		v, ok := obj.values[key]
		if !ok {
			continue
		}
		if e.replacer != nil {
			v = e.replacer.Replace(key, v)
		}
		v = normalize(v)
		if v == Omit {
			continue
		}
		if wrote {
			e.buf.WriteByte(',')
		} else {
			e.buf.WriteByte('{')
		}
		e.newline()
		writeString(&e.buf, key)
		e.buf.WriteByte(':')
		if e.gap != "" {
			e.buf.WriteByte(' ')
		}
		e.value(v)
		wrote = true
	}

	e.indent = stepback
	if !wrote {
		e.buf.WriteString("{}")
		return
	}
	e.newline()
	e.buf.WriteByte('}')
}

func (e *encoder) array(arr []any) {
	if arr == nil {
		e.buf.WriteString("null")
		return
	}
	if len(arr) == 0 {
		e.buf.WriteString("[]")
		return
	}
	stepback := e.indent
	e.indent += e.gap

	e.buf.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		e.newline()
		if e.replacer != nil {
			v = e.replacer.Replace(strconv.Itoa(i), v)
		}
		v = normalize(v)
		if v == Omit {
			v = nil
		}
		e.value(v)
	}

	e.indent = stepback
	e.newline()
	e.buf.WriteByte(']')
}

// newline starts a new line at the current indentation when pretty
// printing is enabled.
func (e *encoder) newline() {
	if e.gap == "" {
		return
	}
	e.buf.WriteByte('\n')
	e.buf.WriteString(e.indent)
}

// normalize maps values a replacer may return onto the value tree types.
// Anything that has no JSON representation is dropped like undefined.
func normalize(v any) any {
	switch t := v.(type) {
	case nil, bool, float64, string, []any, *Object, omit:
		return v
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []string:
		arr := make([]any, len(t))
		for i, s := range t {
			arr[i] = s
		}
		return arr
	default:
		return Omit
	}
}

// formatNumber renders f with the ECMAScript Number::toString algorithm.
// Non-finite values have no JSON form and render as null.
func formatNumber(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	var sign string
	if f < 0 {
		sign = "-"
		f = -f
	}

	// Shortest round-tripping digits d1...dk and exponent n such that
	// f = 0.d1...dk × 10^n.
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart, _ := strings.Cut(sci, "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	exp, _ := strconv.Atoi(expPart)
	k := len(digits)
	n := exp + 1

	var out strings.Builder
	out.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		out.WriteString(digits)
		out.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		out.WriteString(digits[:n])
		out.WriteByte('.')
		out.WriteString(digits[n:])
	case -6 < n && n <= 0:
		out.WriteString("0.")
		out.WriteString(strings.Repeat("0", -n))
		out.WriteString(digits)
	default:
		out.WriteByte(digits[0])
		if k > 1 {
			out.WriteByte('.')
			out.WriteString(digits[1:])
		}
		out.WriteByte('e')
		if n-1 >= 0 {
			out.WriteByte('+')
		}
		out.WriteString(strconv.Itoa(n - 1))
	}
	return out.String()
}

const hexDigits = "0123456789abcdef"

// writeString quotes s like JSON.stringify: only the quote, the backslash
// and control characters are escaped, and lone surrogates (kept in their
// WTF-8 form by Parse) become \udXXX escapes.
func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	start := 0
	for i := 0; i < len(s); {
		b := s[i]
		if b == 0xed && i+2 < len(s) && s[i+1] >= 0xa0 && s[i+1] <= 0xbf {
			buf.WriteString(s[start:i])
			r := 0xd000 | rune(s[i+1]&0x3f)<<6 | rune(s[i+2]&0x3f)
			buf.WriteString(`\u`)
			buf.WriteString(strconv.FormatInt(int64(r), 16))
			i += 3
			start = i
			continue
		}
		if b >= utf8.RuneSelf {
			i++
			continue
		}
		if b >= 0x20 && b != '"' && b != '\\' {
			i++
			continue
		}
		buf.WriteString(s[start:i])
		switch b {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[b>>4])
			buf.WriteByte(hexDigits[b&0xf])
		}
		i++
		start = i
	}
	buf.WriteString(s[start:])
	buf.WriteByte('"')
}
