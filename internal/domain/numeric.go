package domain

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxSafeInteger is the largest integer a float64 represents exactly (2^53-1).
const maxSafeInteger = 1<<53 - 1

// Amount holds a numeric value from the exchange. Integer strings that do not
// survive a float64 round trip keep an arbitrary-precision representation;
// everything else is a float64.
type Amount struct {
	bigVal   *big.Int
	floatVal float64
}

// ParseAmount converts a decimal string into an Amount. Malformed input
// yields a ParseError.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, &ParseError{Input: s, Err: err}
	}

	if !strings.ContainsAny(s, ".eE") && d.IsInteger() {
		i := d.BigInt()
		if i.CmpAbs(big.NewInt(maxSafeInteger)) > 0 {
			return Amount{bigVal: i}, nil
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount{}, &ParseError{Input: s, Err: err}
	}

	return Amount{floatVal: f}, nil
}

// NewAmountFromFloat builds a float-backed Amount.
func NewAmountFromFloat(f float64) Amount {
	return Amount{floatVal: f}
}

// IsBig reports whether the amount carries an arbitrary-precision integer.
func (a Amount) IsBig() bool { return a.bigVal != nil }

// BigInt returns the arbitrary-precision value, or nil for float amounts.
func (a Amount) BigInt() *big.Int { return a.bigVal }

// Float64 returns the value as a float64, lossy for big amounts.
func (a Amount) Float64() float64 {
	if a.bigVal != nil {
		f, _ := new(big.Float).SetInt(a.bigVal).Float64()
		return f
	}
	return a.floatVal
}

// Decimal returns an exact decimal view of the amount.
func (a Amount) Decimal() decimal.Decimal {
	if a.bigVal != nil {
		return decimal.NewFromBigInt(a.bigVal, 0)
	}
	return decimal.NewFromFloat(a.floatVal)
}

// Equal compares two amounts by exact numeric value.
func (a Amount) Equal(b Amount) bool {
	return a.Decimal().Equal(b.Decimal())
}

func (a Amount) String() string {
	if a.bigVal != nil {
		return a.bigVal.String()
	}
	return strconv.FormatFloat(a.floatVal, 'f', -1, 64)
}

// MarshalJSON emits the amount as a bare JSON number so big integers keep
// their full precision on the wire.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.bigVal != nil {
		return []byte(a.bigVal.String()), nil
	}
	return json.Marshal(a.floatVal)
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
