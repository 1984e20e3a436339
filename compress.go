package jsonmin

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Blob codecs, recorded in the manifest. The empty string means raw.
const (
	CompressionNone = ""
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// zstdEncoder and zstdDecoder are shared; both are safe for concurrent
// use through EncodeAll/DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
	)
	if err != nil {
		panic("jsonmin: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("jsonmin: zstd decoder initialization failed: " + err.Error())
	}
}

// ParseCompression maps a configuration name to a blob codec. "none" and
// "" both select raw blobs.
func ParseCompression(name string) (string, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case CompressionZstd, CompressionLZ4:
		return name, nil
	default:
		return "", fmt.Errorf("unknown compression %q (want none, zstd or lz4)", name)
	}
}

func compressBlob(codec string, data []byte) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression %q", codec)
	}
}

func decompressBlob(codec string, data []byte) ([]byte, error) {
	switch codec {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, nil
	case CompressionLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", codec)
	}
}

// blobFileName returns the object file name for a data blob.
func blobFileName(name, codec string) string {
	switch codec {
	case CompressionZstd:
		return name + ".dat.zst"
	case CompressionLZ4:
		return name + ".dat.lz4"
	default:
		return name + ".dat"
	}
}
