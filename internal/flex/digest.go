package flex

import (
	"encoding/hex"

	"github.com/roach88/docgraph/internal/fault"
)

// DigestSize is the byte length of a Digest.
const DigestSize = 32

// Digest is a 256-bit content hash. As a Value it is a graph edge when it
// equals another document's hash.
type Digest [DigestSize]byte

func (Digest) flexValue() {}
func (Digest) Kind() Kind { return KindDigest }

// String returns the lowercase hex form.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(data []byte) error {
	parsed, err := ParseDigest(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest parses a 64-character hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(DigestSize) {
		return d, fault.Encodingf("digest %q must be %d hex characters", s, hex.EncodedLen(DigestSize))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fault.Encodingf("digest %q is not hex: %v", s, err)
	}
	return d, nil
}

// MustParseDigest is like ParseDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustParseDigest(s string) Digest {
	d, err := ParseDigest(s)
	if err != nil {
		panic(err)
	}
	return d
}
