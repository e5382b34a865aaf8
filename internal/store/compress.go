package store

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how a document payload is stored. The numeric
// values are persisted per row and must never change.
type Compression uint8

const (
	// CompressionNone stores the canonical payload as is.
	CompressionNone Compression = 0

	// CompressionLZ4 is LZ4 block compression.
	CompressionLZ4 Compression = 1

	// CompressionZstd is zstd at the default level.
	CompressionZstd Compression = 2
)

// String returns the configuration name of a compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name. Empty means none.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want none, lz4 or zstd)", name)
	}
}

// errIncompressible means compression would not shrink the payload.
var errIncompressible = errors.New("payload is incompressible")

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("store: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("store: zstd decoder initialization failed: " + err.Error())
	}
}

// compress returns the stored form of payload and the tag actually used.
// Payloads that do not shrink are stored uncompressed.
func compress(payload []byte, want Compression) ([]byte, Compression, error) {
	var (
		out []byte
		err error
	)
	switch want {
	case CompressionNone:
		return payload, CompressionNone, nil
	case CompressionLZ4:
		out, err = compressLZ4(payload)
	case CompressionZstd:
		out, err = compressZstd(payload)
	default:
		return nil, 0, fmt.Errorf("unsupported compression %d", want)
	}
	if errors.Is(err, errIncompressible) {
		return payload, CompressionNone, nil
	}
	if err != nil {
		return nil, 0, err
	}
	return out, want, nil
}

// decompress restores a payload. rawSize must match the original length.
func decompress(stored []byte, tag Compression, rawSize int) ([]byte, error) {
	switch tag {
	case CompressionNone:
		if len(stored) != rawSize {
			return nil, fmt.Errorf("uncompressed payload: size %d does not match expected %d", len(stored), rawSize)
		}
		return stored, nil
	case CompressionLZ4:
		return decompressLZ4(stored, rawSize)
	case CompressionZstd:
		return decompressZstd(stored, rawSize)
	default:
		return nil, fmt.Errorf("unsupported compression %d", tag)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	// CompressBlock returns 0 for incompressible input.
	if n == 0 || n >= len(data) {
		return nil, errIncompressible
	}
	return dst[:n], nil
}

func decompressLZ4(data []byte, rawSize int) ([]byte, error) {
	dst := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	if n != rawSize {
		return nil, fmt.Errorf("lz4 decompress: got %d bytes, expected %d", n, rawSize)
	}
	return dst, nil
}

func compressZstd(data []byte) ([]byte, error) {
	out := zstdEncoder.EncodeAll(data, nil)
	if len(out) >= len(data) {
		return nil, errIncompressible
	}
	return out, nil
}

func decompressZstd(data []byte, rawSize int) ([]byte, error) {
	out, err := zstdDecoder.DecodeAll(data, make([]byte, 0, rawSize))
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("zstd decompress: got %d bytes, expected %d", len(out), rawSize)
	}
	return out, nil
}
