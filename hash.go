package jsonmin

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"
)

// Default size for the buffer used when hashing content
const defaultBufferSize = 32 * 1024 // 32KB

// bufferPool is a pool of byte slices used for I/O during hashing
var bufferPool = sync.Pool{
	New: func() interface{} {
		buffer := make([]byte, defaultBufferSize)
		return &buffer
	},
}

// hashContent hashes the content from a reader into h.
func hashContent(content io.Reader, h hash.Hash) error {
	bufPtr := bufferPool.Get().(*[]byte)
	buffer := *bufPtr
	defer bufferPool.Put(bufPtr)

	_, err := io.CopyBuffer(h, content, buffer)
	if err != nil {
		return fmt.Errorf("failed to copy content: %w", err)
	}
	return nil
}

// sum returns the hex digest of h.
func sum(h hash.Hash) string {
	return hex.EncodeToString(h.Sum(nil))
}

// HashXXHash is the default HashFunc: 64-bit xxHash.
func HashXXHash() hash.Hash {
	return xxhash.New()
}

// HashBLAKE3 is a 256-bit BLAKE3 HashFunc, for callers who want a
// collision-resistant fingerprint at some cost in speed.
func HashBLAKE3() hash.Hash {
	return blake3.New()
}

// HashFuncByName resolves the names accepted in configuration files.
func HashFuncByName(name string) (HashFunc, error) {
	switch name {
	case "", "xxhash":
		return HashXXHash, nil
	case "blake3":
		return HashBLAKE3, nil
	default:
		return nil, fmt.Errorf("unknown hash function %q", name)
	}
}

// defaultHashFunc returns the default hash function (xxHash64).
func defaultHashFunc() hash.Hash {
	return HashXXHash()
}
