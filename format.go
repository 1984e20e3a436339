package jsonmin

// Format parses input as JSON and serializes it again according to opts.
// The output is byte-for-byte what JSON.stringify(JSON.parse(input),
// replacer, space) produces, without a trailing newline.
//
// The only error is a *MalformedInputError for input that is not valid
// JSON.
func Format(input []byte, opts FormatOptions) ([]byte, error) {
	v, err := Parse(input)
	if err != nil {
		return nil, err
	}
	return Marshal(v, opts), nil
}

// Marshal serializes a value tree produced by Parse (or built from the
// same types) according to opts.
func Marshal(v any, opts FormatOptions) []byte {
	e := encoder{
		replacer: opts.Replacer,
		gap:      string(opts.Indent),
	}
	return e.encodeRoot(v)
}
