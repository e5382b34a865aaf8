package flex

import (
	"fmt"
	"strconv"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/docgraph/internal/fault"
)

// Kind discriminates the six value variants. The numeric values are the
// canonical encoding tags and must never change.
type Kind uint8

const (
	KindIdentifier Kind = 1
	KindText       Kind = 2
	KindQuantity   Kind = 3
	KindTimestamp  Kind = 4
	KindInt64      Kind = 5
	KindDigest     Kind = 6
)

// MaxIdentifierLen is the longest Identifier accepted, in bytes.
const MaxIdentifierLen = 64

var kindNames = map[Kind]string{
	KindIdentifier: "identifier",
	KindText:       "text",
	KindQuantity:   "quantity",
	KindTimestamp:  "timestamp",
	KindInt64:      "int64",
	KindDigest:     "digest",
}

// String returns the lowercase type name used in JSON and input files.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(k))
}

// Valid reports whether k is one of the six known variants.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind parses a type name produced by Kind.String.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fault.Encodingf("unknown value type %q", name)
}

// Value is a sealed interface over the six variants.
// Only Identifier, Text, Quantity, Timestamp, Int64 and Digest implement it.
type Value interface {
	Kind() Kind
	String() string
	flexValue() // Sealed
}

// Identifier is a short interned name, such as an account.
type Identifier string

func (Identifier) flexValue()       {}
func (Identifier) Kind() Kind       { return KindIdentifier }
func (v Identifier) String() string { return string(v) }

// Text is a UTF-8 string.
type Text string

func (Text) flexValue()       {}
func (Text) Kind() Kind       { return KindText }
func (v Text) String() string { return string(v) }

// Int64 is a signed 64-bit integer.
type Int64 int64

func (Int64) flexValue()       {}
func (Int64) Kind() Kind       { return KindInt64 }
func (v Int64) String() string { return strconv.FormatInt(int64(v), 10) }

// Timestamp is a point in time in microseconds since the Unix epoch, UTC.
type Timestamp int64

func (Timestamp) flexValue() {}
func (Timestamp) Kind() Kind { return KindTimestamp }

// TimestampLayout is the textual form of a Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// TimestampOf converts t to a Timestamp, truncating below microseconds.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UTC().UnixMicro())
}

// Time returns the Timestamp as a UTC time.Time.
func (v Timestamp) Time() time.Time {
	return time.UnixMicro(int64(v)).UTC()
}

func (v Timestamp) String() string {
	return v.Time().Format(TimestampLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (v Timestamp) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Timestamp) UnmarshalText(data []byte) error {
	ts, err := ParseTimestamp(string(data))
	if err != nil {
		return err
	}
	*v = ts
	return nil
}

// ParseTimestamp parses an RFC 3339 time. Sub-microsecond precision is
// rejected rather than silently truncated.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, fault.Encodingf("invalid timestamp %q: %v", s, err)
	}
	if t.Nanosecond()%1000 != 0 {
		return 0, fault.Encodingf("timestamp %q has sub-microsecond precision", s)
	}
	return TimestampOf(t), nil
}

// Validate checks that v is a well-formed value of a known variant.
func Validate(v Value) error {
	switch val := v.(type) {
	case nil:
		return fault.Encodingf("nil value")
	case Identifier:
		return ValidateIdentifier(string(val))
	case Text:
		if !utf8.ValidString(string(val)) {
			return fault.Encodingf("text is not valid UTF-8")
		}
		return nil
	case Quantity:
		return val.validate()
	case Timestamp, Int64, Digest:
		return nil
	default:
		return fault.Encodingf("unknown value type %T", v)
	}
}

// ValidateIdentifier checks the Identifier rules: 1..MaxIdentifierLen
// bytes of valid UTF-8 with no whitespace or control characters.
func ValidateIdentifier(s string) error {
	if len(s) == 0 {
		return fault.Encodingf("identifier is empty")
	}
	if len(s) > MaxIdentifierLen {
		return fault.Encodingf("identifier %q exceeds %d bytes", s, MaxIdentifierLen)
	}
	if !utf8.ValidString(s) {
		return fault.Encodingf("identifier %q is not valid UTF-8", s)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fault.Encodingf("identifier %q contains invalid rune %U", s, r)
		}
	}
	return nil
}

// Equal reports whether a and b are the same variant with the same payload.
// Identifier("7") and Int64(7) are never equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}
