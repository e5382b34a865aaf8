package flex

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/fault"
)

func TestQuantityString(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{MustQuantity(10000, 4, "HUSD"), "1.0000 HUSD"},
		{MustQuantity(-5, 2, "USD"), "-0.05 USD"},
		{MustQuantity(0, 2, "USD"), "0.00 USD"},
		{MustQuantity(42, 0, "EOS"), "42 EOS"},
		{MustQuantity(123456, 3, "TOKEN"), "123.456 TOKEN"},
		{MustQuantity(math.MinInt64, 0, "X"), "-9223372036854775808 X"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.String())

			parsed, err := ParseQuantity(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.q, parsed)
		})
	}
}

func TestParseQuantityPrecisionIsSignificant(t *testing.T) {
	a, err := ParseQuantity("1.0000 HUSD")
	require.NoError(t, err)
	b, err := ParseQuantity("1 HUSD")
	require.NoError(t, err)

	assert.False(t, Equal(a, b))
	assert.NotEqual(t, MustComputeHash([]ContentGroup{Group(C("q", a))}),
		MustComputeHash([]ContentGroup{Group(C("q", b))}))
}

func TestParseQuantityRejects(t *testing.T) {
	inputs := []string{
		"",
		"1.0",
		"1. USD",
		".5 USD",
		"1.0 usd",
		"1,5 USD",
		"1.0 TOOLONGSYM",
		"1.0000000000000000000 USD",
		"99999999999999999999 USD",
		"- USD",
	}
	for _, in := range inputs {
		_, err := ParseQuantity(in)
		assert.True(t, fault.IsEncodingError(err), "%q should be rejected, got %v", in, err)
	}
}

func TestNewQuantityValidation(t *testing.T) {
	_, err := NewQuantity(1, MaxQuantityPrecision+1, "USD")
	assert.True(t, fault.IsEncodingError(err))

	_, err = NewQuantity(1, 0, "")
	assert.True(t, fault.IsEncodingError(err))

	assert.Panics(t, func() { MustQuantity(1, 0, "us") })
}
