package jsonmin

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"
)

// Object is a decoded JSON object. Members are ordered like JavaScript
// object properties: keys that are array indices come first in ascending
// numeric order, the other keys follow in the order they first appeared.
// A repeated key keeps its original position and takes the last value.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Keys returns the member names in order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.keys)
}

// Get returns the value of the named member.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Set adds or replaces a member.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.insertKey(key)
	}
	o.values[key] = value
}

func (o *Object) insertKey(key string) {
	idx, ok := arrayIndex(key)
	if !ok {
		o.keys = append(o.keys, key)
		return
	}
	// Index keys form a sorted prefix of o.keys.
	pos := 0
	for pos < len(o.keys) {
		other, isIndex := arrayIndex(o.keys[pos])
		if !isIndex || other > idx {
			break
		}
		pos++
	}
	o.keys = append(o.keys, "")
	copy(o.keys[pos+1:], o.keys[pos:])
	o.keys[pos] = key
}

// arrayIndex reports whether key is the canonical decimal form of an
// integer in [0, 2^32-2].
func arrayIndex(key string) (uint64, bool) {
	if key == "" || len(key) > 10 || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	n, err := strconv.ParseUint(key, 10, 64)
	if err != nil || n > 1<<32-2 {
		return 0, false
	}
	return n, true
}

// Delete removes a member if present.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Parse decodes a single JSON text into a value tree made of nil, bool,
// float64, string, []any and *Object. Numbers are IEEE-754 doubles;
// literals beyond the double range decode to ±Inf. An unpaired surrogate
// escape such as \ud800 is kept in the string as its 3-byte WTF-8
// sequence so that formatting writes it back unchanged.
//
// A syntax error, an empty input or data after the top-level value is
// reported as a *MalformedInputError.
func Parse(input []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(input))
	dec.UseNumber()

	p := parser{dec: dec, input: input}
	v, err := p.value()
	if err != nil {
		return nil, err
	}

	// Only whitespace may follow the top-level value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, p.fail(err)
	}
	return v, nil
}

type parser struct {
	dec   *json.Decoder
	input []byte
}

func (p *parser) value() (any, error) {
	start := p.dec.InputOffset()
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, p.fail(err)
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return p.object()
		case '[':
			return p.array()
		default:
			return nil, p.fail(fmt.Errorf("unexpected %q", rune(t)))
		}
	case json.Number:
		return parseNumber(t), nil
	case string:
		return p.str(t, start), nil
	case bool, nil:
		return t, nil
	default:
		return nil, p.fail(fmt.Errorf("unexpected token %v", tok))
	}
}

func (p *parser) object() (any, error) {
	obj := NewObject()
	for p.dec.More() {
		start := p.dec.InputOffset()
		tok, err := p.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, p.fail(err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.fail(fmt.Errorf("object key must be a string, got %v", tok))
		}
		key = p.str(key, start)
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
	if err := p.closing('}'); err != nil {
		return nil, err
	}
	return obj, nil
}

func (p *parser) array() (any, error) {
	arr := []any{}
	for p.dec.More() {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if err := p.closing(']'); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *parser) closing(want json.Delim) error {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return p.fail(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return p.fail(fmt.Errorf("expected %q, got %v", rune(want), tok))
	}
	return nil
}

// fail converts a decoder error into a *MalformedInputError positioned
// at the failing byte.
func (p *parser) fail(err error) error {
	var malformed *MalformedInputError
	if errors.As(err, &malformed) {
		return err
	}
	offset := p.dec.InputOffset()
	// The streaming decoder reports offsets relative to the value it was
	// reading; a whole-input scan locates the offending byte exactly.
	var syntaxErr *json.SyntaxError
	if errors.As(json.Unmarshal(p.input, new(json.RawMessage)), &syntaxErr) {
		err = syntaxErr
		offset = syntaxErr.Offset - 1
	}
	return newMalformedInputError(p.input, offset, err)
}

// str returns the string token read from input[start:]. The decoder
// replaces unpaired surrogate escapes with U+FFFD; when the literal has
// one, it is decoded again keeping each unpaired surrogate as its WTF-8
// byte sequence, which writeString turns back into a \uXXXX escape.
func (p *parser) str(s string, start int64) string {
	raw := p.input[start:p.dec.InputOffset()]
	if !hasSurrogateEscape(raw) {
		return s
	}
	q := bytes.IndexByte(raw, '"')
	if q < 0 {
		return s
	}
	return unquoteWTF8(raw[q+1 : len(raw)-1])
}

// hasSurrogateEscape reports whether raw may hold a \uD800-\uDFFF escape.
func hasSurrogateEscape(raw []byte) bool {
	for i := 0; i+3 < len(raw); i++ {
		if raw[i] == '\\' && raw[i+1] == 'u' && (raw[i+2] == 'd' || raw[i+2] == 'D') {
			switch raw[i+3] {
			case '8', '9', 'a', 'b', 'c', 'd', 'e', 'f', 'A', 'B', 'C', 'D', 'E', 'F':
				return true
			}
		}
	}
	return false
}

// unquoteWTF8 decodes the body of a JSON string literal the decoder has
// already validated.
func unquoteWTF8(body []byte) string {
	var buf bytes.Buffer
	buf.Grow(len(body))
	for i := 0; i < len(body); {
		c := body[i]
		if c != '\\' {
			r, size := utf8.DecodeRune(body[i:])
			buf.WriteRune(r)
			i += size
			continue
		}
		switch body[i+1] {
		case 'b':
			buf.WriteByte('\b')
		case 'f':
			buf.WriteByte('\f')
		case 'n':
			buf.WriteByte('\n')
		case 'r':
			buf.WriteByte('\r')
		case 't':
			buf.WriteByte('\t')
		case 'u':
			r := hex4(body[i+2 : i+6])
			i += 6
			if utf16.IsSurrogate(r) {
				if r < 0xdc00 && i+6 <= len(body) && body[i] == '\\' && body[i+1] == 'u' {
					if pair := utf16.DecodeRune(r, hex4(body[i+2:i+6])); pair != utf8.RuneError {
						buf.WriteRune(pair)
						i += 6
						continue
					}
				}
				writeSurrogate(&buf, r)
				continue
			}
			buf.WriteRune(r)
			continue
		default: // '"', '\\' and '/'
			buf.WriteByte(body[i+1])
		}
		i += 2
	}
	return buf.String()
}

func hex4(b []byte) rune {
	n, _ := strconv.ParseUint(string(b), 16, 16)
	return rune(n)
}

// writeSurrogate appends the generalized UTF-8 encoding of a lone
// surrogate code unit. Valid UTF-8 never contains it.
func writeSurrogate(buf *bytes.Buffer, r rune) {
	buf.WriteByte(0xe0 | byte(r>>12))
	buf.WriteByte(0x80 | byte(r>>6)&0x3f)
	buf.WriteByte(0x80 | byte(r)&0x3f)
}

func parseNumber(n json.Number) float64 {
	// The decoder only hands over well-formed literals, so the only
	// possible error is ErrRange, which comes with f set to ±Inf.
	f, _ := strconv.ParseFloat(string(n), 64)
	return f
}
