package jsonmin

import (
	"bytes"
	"sync"
)

// fingerprinter computes asset fingerprints for one build pass. A
// fingerprint combines the content digest with the digest of the format
// options, so changing either invalidates cached outputs. Content digests
// are memoized per *Source.
type fingerprinter struct {
	hashFunc   HashFunc
	optionsTag string

	mu   sync.Mutex
	memo map[*Source]string
}

func newFingerprinter(hashFunc HashFunc, optionsTag string) *fingerprinter {
	return &fingerprinter{
		hashFunc:   hashFunc,
		optionsTag: optionsTag,
		memo:       make(map[*Source]string),
	}
}

// get returns the fingerprint of src. A nil source hashes as empty.
func (f *fingerprinter) get(src *Source) string {
	f.mu.Lock()
	etag, ok := f.memo[src]
	f.mu.Unlock()
	if ok {
		return etag
	}

	var data []byte
	if src != nil {
		data = src.Bytes()
	}
	h := f.hashFunc()
	// Writing to an in-memory reader cannot fail.
	_ = hashContent(bytes.NewReader(data), h)
	etag = sum(h) + "-" + f.optionsTag

	f.mu.Lock()
	f.memo[src] = etag
	f.mu.Unlock()
	return etag
}
