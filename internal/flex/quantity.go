package flex

import (
	"strconv"
	"strings"

	"github.com/roach88/docgraph/internal/fault"
)

// MaxQuantityPrecision is the largest number of decimal places a Quantity
// may carry. 10^18 still fits in an int64.
const MaxQuantityPrecision = 18

// MaxSymbolLen is the longest unit symbol accepted.
const MaxSymbolLen = 7

// Quantity is a fixed-point amount with a unit symbol.
// The logical amount is Amount / 10^Precision, e.g. {10000, 4, "HUSD"}
// is "1.0000 HUSD".
type Quantity struct {
	Amount    int64
	Precision uint8
	Symbol    string
}

func (Quantity) flexValue() {}
func (Quantity) Kind() Kind { return KindQuantity }

// NewQuantity builds and validates a Quantity.
func NewQuantity(amount int64, precision uint8, symbol string) (Quantity, error) {
	q := Quantity{Amount: amount, Precision: precision, Symbol: symbol}
	if err := q.validate(); err != nil {
		return Quantity{}, err
	}
	return q, nil
}

// MustQuantity is like NewQuantity but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustQuantity(amount int64, precision uint8, symbol string) Quantity {
	q, err := NewQuantity(amount, precision, symbol)
	if err != nil {
		panic(err)
	}
	return q
}

func (q Quantity) validate() error {
	if q.Precision > MaxQuantityPrecision {
		return fault.Encodingf("quantity precision %d exceeds %d", q.Precision, MaxQuantityPrecision)
	}
	if len(q.Symbol) == 0 || len(q.Symbol) > MaxSymbolLen {
		return fault.Encodingf("quantity symbol %q must be 1..%d characters", q.Symbol, MaxSymbolLen)
	}
	for i := 0; i < len(q.Symbol); i++ {
		if q.Symbol[i] < 'A' || q.Symbol[i] > 'Z' {
			return fault.Encodingf("quantity symbol %q must be uppercase A-Z", q.Symbol)
		}
	}
	return nil
}

// String formats the quantity as "<amount> <symbol>" with exactly
// Precision decimal places, e.g. "-0.05 USD".
func (q Quantity) String() string {
	neg := q.Amount < 0
	// uint64 negation handles math.MinInt64.
	mag := uint64(q.Amount)
	if neg {
		mag = -mag
	}
	digits := strconv.FormatUint(mag, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	p := int(q.Precision)
	if p > 0 {
		if len(digits) <= p {
			digits = strings.Repeat("0", p-len(digits)+1) + digits
		}
		b.WriteString(digits[:len(digits)-p])
		b.WriteByte('.')
		b.WriteString(digits[len(digits)-p:])
	} else {
		b.WriteString(digits)
	}
	b.WriteByte(' ')
	b.WriteString(q.Symbol)
	return b.String()
}

// ParseQuantity parses the String form. Precision is the number of digits
// after the decimal point, so "1.0000 HUSD" and "1 HUSD" are different
// quantities.
func ParseQuantity(s string) (Quantity, error) {
	number, symbol, ok := strings.Cut(s, " ")
	if !ok {
		return Quantity{}, fault.Encodingf("quantity %q must be \"<amount> <symbol>\"", s)
	}

	sign := ""
	if strings.HasPrefix(number, "-") {
		sign = "-"
		number = number[1:]
	}
	whole, frac, hasFrac := strings.Cut(number, ".")
	if whole == "" || (hasFrac && frac == "") || !allDigits(whole) || !allDigits(frac) {
		return Quantity{}, fault.Encodingf("quantity %q has malformed amount", s)
	}
	if len(frac) > MaxQuantityPrecision {
		return Quantity{}, fault.Encodingf("quantity %q exceeds precision %d", s, MaxQuantityPrecision)
	}

	amount, err := strconv.ParseInt(sign+whole+frac, 10, 64)
	if err != nil {
		return Quantity{}, fault.Encodingf("quantity %q amount out of range", s)
	}
	return NewQuantity(amount, uint8(len(frac)), symbol)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
