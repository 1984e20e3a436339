package jsonmin

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  FormatOptions
		want  string
	}{
		{
			name:  "compact",
			input: "{\n  \"b\": 2,\n  \"a\": [1, 2, {\"c\": null}]\n}\n",
			want:  `{"b":2,"a":[1,2,{"c":null}]}`,
		},
		{
			name:  "indent two spaces",
			input: `{"b":2,"a":1}`,
			opts:  FormatOptions{Indent: IndentWidth(2)},
			want:  "{\n  \"b\": 2,\n  \"a\": 1\n}",
		},
		{
			name:  "indent string",
			input: `{"a":[1,{}],"b":[]}`,
			opts:  FormatOptions{Indent: IndentString("\t")},
			want:  "{\n\t\"a\": [\n\t\t1,\n\t\t{}\n\t],\n\t\"b\": []\n}",
		},
		{
			name:  "scalar root",
			input: ` "x" `,
			want:  `"x"`,
		},
		{
			name:  "literals",
			input: `[true, false, null]`,
			want:  `[true,false,null]`,
		},
		{
			name:  "duplicate keys keep first position and last value",
			input: `{"a":1,"b":2,"a":3}`,
			want:  `{"a":3,"b":2}`,
		},
		{
			name:  "index keys come first",
			input: `{"b":1,"10":2,"a":3,"2":4,"01":5}`,
			want:  `{"2":4,"10":2,"b":1,"a":3,"01":5}`,
		},
		{
			name:  "allow list keeps listed keys at every depth in list order",
			input: `{"a":1,"b":{"a":2,"c":3},"c":4}`,
			opts:  FormatOptions{Replacer: AllowList{"c", "b", "a", "b"}},
			want:  `{"c":4,"b":{"c":3,"a":2},"a":1}`,
		},
		{
			name:  "allow list does not filter arrays",
			input: `[{"a":1,"z":2},3]`,
			opts:  FormatOptions{Replacer: AllowList{"a"}},
			want:  `[{"a":1},3]`,
		},
		{
			name:  "empty allow list",
			input: `{"a":1}`,
			opts:  FormatOptions{Replacer: AllowList{}},
			want:  `{}`,
		},
		{
			name:  "replacer function drops and rewrites",
			input: `{"keep":1,"drop":2,"list":[1,2,3]}`,
			opts: FormatOptions{Replacer: ReplacerFunc(func(key string, value any) any {
				switch {
				case key == "drop":
					return Omit
				case key == "1":
					return Omit
				}
				if f, ok := value.(float64); ok {
					return f * 10
				}
				return value
			})},
			want: `{"keep":10,"list":[10,null,30]}`,
		},
		{
			name:  "replacer function can return Go values",
			input: `{"a":1}`,
			opts: FormatOptions{Replacer: ReplacerFunc(func(key string, value any) any {
				if key == "a" {
					return []string{"x", "y"}
				}
				return value
			})},
			want: `{"a":["x","y"]}`,
		},
		{
			name:  "unsupported replacer values are dropped",
			input: `{"a":1,"b":2}`,
			opts: FormatOptions{Replacer: ReplacerFunc(func(key string, value any) any {
				if key == "a" {
					return func() {}
				}
				return value
			})},
			want: `{"b":2}`,
		},
		{
			name:  "omitted root",
			input: `{"a":1}`,
			opts: FormatOptions{Replacer: ReplacerFunc(func(key string, value any) any {
				return Omit
			})},
			want: ``,
		},
		{
			name:  "strings",
			input: `["é ", "a\"b\\c", "\b\f\n\r\t\u0001", "\/"]`,
			want:  "[\"é \",\"a\\\"b\\\\c\",\"\\b\\f\\n\\r\\t\\u0001\",\"/\"]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format([]byte(tt.input), tt.opts)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Format() mismatch:\nExpected: %s\nActual:   %s", tt.want, got)
			}
		})
	}
}

func TestFormatReplacerOrder(t *testing.T) {
	var calls []string
	opts := FormatOptions{Replacer: ReplacerFunc(func(key string, value any) any {
		calls = append(calls, key)
		return value
	})}

	if _, err := Format([]byte(`{"a":{"b":1},"c":[true,false]}`), opts); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := []string{"", "a", "b", "c", "0", "1"}
	if !reflect.DeepEqual(calls, want) {
		t.Fatalf("expected calls %q, got %q", want, calls)
	}
}

func TestFormatLoneSurrogates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lone high", `"\ud800"`, `"\ud800"`},
		{"lone low in object", `{"k":"\udc00x"}`, `{"k":"\udc00x"}`},
		{"uppercase escape", `"\uDBFF!"`, `"\udbff!"`},
		{"high then non-low escape", `"\ud800\u0041"`, `"\ud800A"`},
		{"reversed pair", `"\udc00\ud800"`, `"\udc00\ud800"`},
		{"in key", `{"\udfff":1}`, `{"\udfff":1}`},
		{"valid pair", `"\ud83d\ude00"`, `"😀"`},
		{"escaped backslash", `"\\ud800"`, `"\\ud800"`},
		{"mixed escapes", `"a\n\u00e9\/\ud800\"b"`, `"a\né/\ud800\"b"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format([]byte(tt.input), FormatOptions{})
			if err != nil {
				t.Fatalf("Format(%s) failed: %v", tt.input, err)
			}
			if string(got) != tt.want {
				t.Errorf("Format(%s) = %s, want %s", tt.input, got, tt.want)
			}
			again, err := Format(got, FormatOptions{})
			if err != nil {
				t.Fatalf("Format(%s) failed: %v", got, err)
			}
			if string(again) != string(got) {
				t.Errorf("Format is not idempotent: %s then %s", got, again)
			}
		})
	}

	v, err := Parse([]byte(`{"\udc00":"\ud800"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	obj := v.(*Object)
	if got := obj.Keys(); len(got) != 1 || got[0] != "\xed\xb0\x80" {
		t.Errorf("Keys() = %q, want the WTF-8 form of U+DC00", got)
	}
	if s, _ := obj.Get("\xed\xb0\x80"); s != "\xed\xa0\x80" {
		t.Errorf("value = %q, want the WTF-8 form of U+D800", s)
	}
}

func TestFormatNumbers(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"1.0", "1"},
		{"1.50", "1.5"},
		{"-12.25", "-12.25"},
		{"1e3", "1000"},
		{"1E21", "1e+21"},
		{"123456789012345678901", "123456789012345680000"},
		{"0.000001", "0.000001"},
		{"0.0000001", "1e-7"},
		{"1.5e-10", "1.5e-10"},
		{"0.1", "0.1"},
		{"9007199254740993", "9007199254740992"},
		{"1e400", "null"},
		{"-1e400", "null"},
		{"5e-324", "5e-324"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Format([]byte(tt.input), FormatOptions{})
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("Format(%s) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatNumberNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := formatNumber(f); got != "null" {
			t.Errorf("formatNumber(%v) = %s, want null", f, got)
		}
	}
}

func TestFormatMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		column int
	}{
		{name: "missing value", input: `{"bad": }`, line: 1, column: 9},
		{name: "second line", input: "{\n  \"a\": 1,\n  \"b\" 2\n}", line: 3, column: 7},
		{name: "empty", input: ``, line: 1, column: 1},
		{name: "truncated", input: `[1, 2`, line: 1},
		{name: "trailing data", input: `{} {}`, line: 1},
		{name: "trailing comma", input: `[1,]`, line: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Format([]byte(tt.input), FormatOptions{})
			var malformed *MalformedInputError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected MalformedInputError, got %v", err)
			}
			if malformed.Line != tt.line {
				t.Errorf("expected line %d, got %d (%v)", tt.line, malformed.Line, err)
			}
			if tt.column != 0 && malformed.Column != tt.column {
				t.Errorf("expected column %d, got %d (%v)", tt.column, malformed.Column, err)
			}
			if !strings.Contains(err.Error(), "malformed JSON at line") {
				t.Errorf("unexpected message: %v", err)
			}
		})
	}
}

func TestFormatIdempotent(t *testing.T) {
	inputs := []string{
		`{"b":2,"a":[1,2.5,"x",{"c":null}]}`,
		` [ 1e21 , -0.0000001 , "\u0007" ] `,
		`{"2":1,"1":{"z":true,"y":false}}`,
	}
	for _, opts := range []FormatOptions{{}, {Indent: IndentWidth(4)}} {
		for _, input := range inputs {
			once, err := Format([]byte(input), opts)
			if err != nil {
				t.Fatalf("Format(%s) error = %v", input, err)
			}
			twice, err := Format(once, opts)
			if err != nil {
				t.Fatalf("Format(%s) error = %v", once, err)
			}
			if string(once) != string(twice) {
				t.Fatalf("Format is not idempotent:\nonce:  %s\ntwice: %s", once, twice)
			}
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	input := []byte(`{"name":"app","version":1.5,"tags":["a","b"],"nested":{"x":null,"y":[{}]}}`)

	want, err := Parse(input)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Format(input, FormatOptions{Indent: IndentWidth(2)})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed the value:\nwant %#v\ngot  %#v", want, got)
	}
}

func TestIndent(t *testing.T) {
	if got := IndentWidth(-1); got != "" {
		t.Errorf("IndentWidth(-1) = %q", got)
	}
	if got := IndentWidth(20); got != Indent(strings.Repeat(" ", 10)) {
		t.Errorf("IndentWidth(20) = %q", got)
	}
	if got := IndentString("ééééééééééxx"); got != "éééééééééé" {
		t.Errorf("IndentString() = %q", got)
	}
}

func TestObject(t *testing.T) {
	obj := NewObject()
	obj.Set("b", 1.0)
	obj.Set("a", 2.0)
	obj.Set("3", 3.0)
	obj.Set("1", 4.0)
	obj.Set("b", 5.0)

	if want := []string{"1", "3", "b", "a"}; !reflect.DeepEqual(obj.Keys(), want) {
		t.Fatalf("expected keys %q, got %q", want, obj.Keys())
	}
	if v, _ := obj.Get("b"); v != 5.0 {
		t.Fatalf("expected b=5, got %v", v)
	}

	obj.Delete("3")
	obj.Delete("missing")
	if obj.Len() != 3 {
		t.Fatalf("expected 3 members, got %d", obj.Len())
	}
	if got := string(Marshal(obj, FormatOptions{})); got != `{"1":4,"b":5,"a":2}` {
		t.Fatalf("Marshal() = %s", got)
	}
}
