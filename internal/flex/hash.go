package flex

import (
	"crypto/sha256"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// DomainDocument is the domain prefix for document content hashes.
// Version suffix enables future algorithm migration.
const DomainDocument = "docgraph/document/v1"

// Algorithm names a 256-bit digest function.
type Algorithm string

const (
	// SHA256 is the default algorithm.
	SHA256 Algorithm = "sha256"

	// BLAKE3 is the 256-bit BLAKE3 hash.
	BLAKE3 Algorithm = "blake3"
)

// ParseAlgorithm validates an algorithm name. Empty means SHA256.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q (want sha256 or blake3)", name)
	}
}

// Hasher computes document content hashes with a fixed algorithm.
// The zero value uses SHA256.
type Hasher struct {
	alg Algorithm
}

// NewHasher creates a Hasher for alg.
func NewHasher(alg Algorithm) (Hasher, error) {
	parsed, err := ParseAlgorithm(string(alg))
	if err != nil {
		return Hasher{}, err
	}
	return Hasher{alg: parsed}, nil
}

// Algorithm returns the digest function in use.
func (h Hasher) Algorithm() Algorithm {
	if h.alg == "" {
		return SHA256
	}
	return h.alg
}

func (h Hasher) newHash() hash.Hash {
	if h.Algorithm() == BLAKE3 {
		return blake3.New()
	}
	return sha256.New()
}

// Sum hashes canonical payload bytes with domain separation.
// Format: H(domain + 0x00 + payload)
// The null byte separator prevents domain/data boundary ambiguity.
func (h Hasher) Sum(payload []byte) Digest {
	hh := h.newHash()
	hh.Write([]byte(DomainDocument))
	hh.Write([]byte{0x00})
	hh.Write(payload)

	var d Digest
	copy(d[:], hh.Sum(nil))
	return d
}

// ComputeHash canonically encodes groups and hashes the result. It is a
// pure function: equal logical groups always produce the same digest.
func (h Hasher) ComputeHash(groups []ContentGroup) (Digest, error) {
	payload, err := MarshalCanonical(groups)
	if err != nil {
		return Digest{}, fmt.Errorf("compute hash: %w", err)
	}
	return h.Sum(payload), nil
}

// ComputeHash hashes groups with the default algorithm.
func ComputeHash(groups []ContentGroup) (Digest, error) {
	return Hasher{}.ComputeHash(groups)
}

// MustComputeHash is like ComputeHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustComputeHash(groups []ContentGroup) Digest {
	d, err := ComputeHash(groups)
	if err != nil {
		panic(err)
	}
	return d
}
