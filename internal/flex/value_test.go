package flex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/fault"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "identifier", KindIdentifier.String())
	assert.Equal(t, "digest", KindDigest.String())
	assert.Equal(t, "unknown(9)", Kind(9).String())
	assert.False(t, Kind(0).Valid())

	for k := KindIdentifier; k <= KindDigest; k++ {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("float")
	assert.True(t, fault.IsEncodingError(err))
}

func TestValidateIdentifier(t *testing.T) {
	valid := []string{"a", "alice", "user-42", "x.y/z", "café", "álice", "名前", string(make64('a'))}
	for _, s := range valid {
		assert.NoError(t, ValidateIdentifier(s), s)
	}

	invalid := []string{
		"", "al ice", "tab\t", "nul\x00", "del\x7f", "nb\u00a0sp", "c1\u0085",
		"bad\xff", string(make64('a')) + "b", string(make64('a'))[1:] + "é",
	}
	for _, s := range invalid {
		err := ValidateIdentifier(s)
		assert.True(t, fault.IsEncodingError(err), "%q should be rejected", s)
	}
}

func make64(b byte) []byte {
	out := make([]byte, MaxIdentifierLen)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestEqualDistinguishesVariants(t *testing.T) {
	assert.False(t, Equal(Identifier("7"), Int64(7)))
	assert.False(t, Equal(Text("7"), Identifier("7")))
	assert.False(t, Equal(Timestamp(7), Int64(7)))
	assert.True(t, Equal(Int64(7), Int64(7)))
	assert.True(t, Equal(MustQuantity(1, 2, "USD"), MustQuantity(1, 2, "USD")))
	assert.False(t, Equal(MustQuantity(1, 2, "USD"), MustQuantity(10, 3, "USD")))
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Int64(0)))
}

func TestTimestampText(t *testing.T) {
	ts := Timestamp(1700000000123456)
	assert.Equal(t, "2023-11-14T22:13:20.123456Z", ts.String())

	parsed, err := ParseTimestamp(ts.String())
	require.NoError(t, err)
	assert.Equal(t, ts, parsed)

	parsed, err = ParseTimestamp("2023-11-14T23:13:20.123456+01:00")
	require.NoError(t, err)
	assert.Equal(t, ts, parsed, "offsets are normalized to UTC")

	_, err = ParseTimestamp("2023-11-14T22:13:20.123456789Z")
	assert.True(t, fault.IsEncodingError(err), "nanoseconds are not representable")

	_, err = ParseTimestamp("yesterday")
	assert.True(t, fault.IsEncodingError(err))
}

func TestTimestampOf(t *testing.T) {
	tm := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	ts := TimestampOf(tm)
	assert.Equal(t, tm, ts.Time())

	var decoded Timestamp
	text, err := ts.MarshalText()
	require.NoError(t, err)
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, ts, decoded)
}

func TestDigestParse(t *testing.T) {
	const hexDigest = "7d075819d2825a71ea924db1c859a59016551b6a579e2ecad7fcea9b4240107c"
	d, err := ParseDigest(hexDigest)
	require.NoError(t, err)
	assert.Equal(t, hexDigest, d.String())
	assert.False(t, d.IsZero())
	assert.True(t, Digest{}.IsZero())

	_, err = ParseDigest("abc")
	assert.True(t, fault.IsEncodingError(err))
	_, err = ParseDigest("zz075819d2825a71ea924db1c859a59016551b6a579e2ecad7fcea9b4240107c")
	assert.True(t, fault.IsEncodingError(err))
}

func TestContentGroupHelpers(t *testing.T) {
	parent := MustParseDigest("7d075819d2825a71ea924db1c859a59016551b6a579e2ecad7fcea9b4240107c")
	g := Group(
		C("title", Text("a")),
		C("title", Text("b")),
		C("forked_from", parent),
	)

	v, ok := g.Get("title")
	require.True(t, ok)
	assert.Equal(t, Text("a"), v)

	_, ok = g.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []Digest{parent}, g.Digests())

	groups := []ContentGroup{g}
	clone := CloneGroups(groups)
	clone[0][0] = C("title", Text("changed"))
	assert.Equal(t, Text("a"), groups[0][0].Value, "clone must not alias")
	assert.False(t, EqualGroups(groups, clone))

	v, ok = Lookup([]ContentGroup{{}, g}, "forked_from")
	require.True(t, ok)
	assert.Equal(t, parent, v)
}
