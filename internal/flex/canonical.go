package flex

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/docgraph/internal/fault"
)

// Canonical layout, all integers big-endian:
//
//	payload = u32 group_count || group*
//	group   = u32 content_count || content*
//	content = u32 label_len || NFC(label) || value
//	value   = u8 tag || u32 payload_len || payload
//
// Value payloads by tag:
//
//	Identifier  raw UTF-8 bytes, compared bytewise
//	Text        NFC UTF-8 bytes
//	Quantity    i64 amount || u8 precision || symbol bytes
//	Timestamp   i64 microseconds
//	Int64       i64
//	Digest      32 raw bytes
//
// Length prefixes (never delimiters) keep the encoding unambiguous for
// values containing separator-like bytes.

// minContentSize is the smallest encoded content: empty label + value header.
const minContentSize = 4 + 1 + 4

// MarshalCanonical produces the canonical bytes of a group sequence.
// CRITICAL: This is the ONLY serialization used for content identity.
// Fails only on malformed values, with a fault.CodeEncoding error.
func MarshalCanonical(groups []ContentGroup) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCount(&buf, len(groups)); err != nil {
		return nil, err
	}
	for i, g := range groups {
		if err := writeCount(&buf, len(g)); err != nil {
			return nil, fmt.Errorf("group[%d]: %w", i, err)
		}
		for j, c := range g {
			if err := writeContent(&buf, c); err != nil {
				return nil, fmt.Errorf("group[%d].content[%d]: %w", i, j, err)
			}
		}
	}
	return buf.Bytes(), nil
}

// MarshalValue produces the canonical bytes of a single value.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCount(buf *bytes.Buffer, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fault.Encodingf("length %d out of range", n)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(n))
	buf.Write(b[:])
	return nil
}

func writeBytes(buf *bytes.Buffer, data []byte) error {
	if err := writeCount(buf, len(data)); err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func writeContent(buf *bytes.Buffer, c Content) error {
	if !utf8.ValidString(c.Label) {
		return fault.Encodingf("label is not valid UTF-8")
	}
	// NFC normalize at the serialization boundary
	if err := writeBytes(buf, []byte(norm.NFC.String(c.Label))); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	if err := writeValue(buf, c.Value); err != nil {
		return fmt.Errorf("value for label %q: %w", c.Label, err)
	}
	return nil
}

// writeValue switches exhaustively over the variants. Adding a variant to
// Kind requires a case here and in readValue.
func writeValue(buf *bytes.Buffer, v Value) error {
	if err := Validate(v); err != nil {
		return err
	}

	var payload []byte
	switch val := v.(type) {
	case Identifier:
		payload = []byte(val)
	case Text:
		payload = []byte(norm.NFC.String(string(val)))
	case Quantity:
		payload = make([]byte, 9, 9+len(val.Symbol))
		binary.BigEndian.PutUint64(payload[:8], uint64(val.Amount))
		payload[8] = val.Precision
		payload = append(payload, val.Symbol...)
	case Timestamp:
		payload = binary.BigEndian.AppendUint64(nil, uint64(val))
	case Int64:
		payload = binary.BigEndian.AppendUint64(nil, uint64(val))
	case Digest:
		payload = val[:]
	default:
		return fault.Encodingf("unknown value type %T", v)
	}

	buf.WriteByte(byte(v.Kind()))
	return writeBytes(buf, payload)
}

// UnmarshalCanonical is the strict inverse of MarshalCanonical. Input that
// MarshalCanonical could not have produced (unknown tags, wrong payload
// sizes, non-NFC text, truncation, trailing bytes) is an encoding error.
func UnmarshalCanonical(data []byte) ([]ContentGroup, error) {
	r := &reader{data: data}

	groupCount, err := r.count(4)
	if err != nil {
		return nil, fmt.Errorf("group count: %w", err)
	}
	groups := make([]ContentGroup, groupCount)
	for i := range groups {
		contentCount, err := r.count(minContentSize)
		if err != nil {
			return nil, fmt.Errorf("group[%d]: %w", i, err)
		}
		g := make(ContentGroup, contentCount)
		for j := range g {
			if g[j], err = r.content(); err != nil {
				return nil, fmt.Errorf("group[%d].content[%d]: %w", i, j, err)
			}
		}
		groups[i] = g
	}

	if r.remaining() != 0 {
		return nil, fault.Encodingf("%d trailing bytes", r.remaining())
	}
	return groups, nil
}

// UnmarshalValue decodes a single canonically encoded value.
func UnmarshalValue(data []byte) (Value, error) {
	r := &reader{data: data}
	v, err := r.value()
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fault.Encodingf("%d trailing bytes", r.remaining())
	}
	return v, nil
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) remaining() int {
	return len(r.data) - r.off
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, fault.Encodingf("truncated length at offset %d", r.off)
	}
	n := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return n, nil
}

// count reads an element count and rejects counts that could not fit in
// the remaining bytes, so corrupt input cannot force large allocations.
func (r *reader) count(minElemSize int) (int, error) {
	n, err := r.u32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minElemSize) > uint64(r.remaining()) {
		return 0, fault.Encodingf("count %d exceeds remaining %d bytes", n, r.remaining())
	}
	return int(n), nil
}

func (r *reader) bytes() ([]byte, error) {
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	if uint64(n) > uint64(r.remaining()) {
		return nil, fault.Encodingf("length %d exceeds remaining %d bytes", n, r.remaining())
	}
	b := r.data[r.off : r.off+int(n)]
	r.off += int(n)
	return b, nil
}

func (r *reader) content() (Content, error) {
	label, err := r.bytes()
	if err != nil {
		return Content{}, fmt.Errorf("label: %w", err)
	}
	if err := checkNFC(label); err != nil {
		return Content{}, fmt.Errorf("label: %w", err)
	}
	v, err := r.value()
	if err != nil {
		return Content{}, fmt.Errorf("value for label %q: %w", label, err)
	}
	return Content{Label: string(label), Value: v}, nil
}

func (r *reader) value() (Value, error) {
	if r.remaining() < 1 {
		return nil, fault.Encodingf("truncated value tag at offset %d", r.off)
	}
	kind := Kind(r.data[r.off])
	r.off++
	if !kind.Valid() {
		return nil, fault.Encodingf("unknown value tag %d", uint8(kind))
	}
	payload, err := r.bytes()
	if err != nil {
		return nil, err
	}

	var v Value
	switch kind {
	case KindIdentifier:
		v = Identifier(payload)
	case KindText:
		if err := checkNFC(payload); err != nil {
			return nil, err
		}
		v = Text(payload)
	case KindQuantity:
		if len(payload) < 10 {
			return nil, fault.Encodingf("quantity payload is %d bytes", len(payload))
		}
		v = Quantity{
			Amount:    int64(binary.BigEndian.Uint64(payload[:8])),
			Precision: payload[8],
			Symbol:    string(payload[9:]),
		}
	case KindTimestamp, KindInt64:
		if len(payload) != 8 {
			return nil, fault.Encodingf("%s payload is %d bytes, want 8", kind, len(payload))
		}
		n := int64(binary.BigEndian.Uint64(payload))
		if kind == KindTimestamp {
			v = Timestamp(n)
		} else {
			v = Int64(n)
		}
	case KindDigest:
		if len(payload) != DigestSize {
			return nil, fault.Encodingf("digest payload is %d bytes, want %d", len(payload), DigestSize)
		}
		var d Digest
		copy(d[:], payload)
		v = d
	}

	if err := Validate(v); err != nil {
		return nil, err
	}
	return v, nil
}

func checkNFC(b []byte) error {
	if !utf8.Valid(b) {
		return fault.Encodingf("text is not valid UTF-8")
	}
	if !norm.NFC.IsNormal(b) {
		return fault.Encodingf("text is not NFC normalized")
	}
	return nil
}
