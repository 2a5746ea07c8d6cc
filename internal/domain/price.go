package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxPriceScale bounds the number of decimal places a price may carry.
const MaxPriceScale = 9

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// PriceScale is the number of decimal places represented by one minor
// unit. A scale of 2 stores 101.25 as 10125.
type PriceScale int32

// ToMinor converts a decimal price to integer minor units. It rejects
// values with more precision than the scale and values that do not fit
// in an int64; it never rounds.
func (s PriceScale) ToMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(int32(s))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, &ValidationError{
			Message: fmt.Sprintf("price must have at most %d decimal places", s),
		}
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, &ValidationError{Message: "price is out of range"}
	}
	return shifted.IntPart(), nil
}

// Parse converts a decimal string such as "101.25" to minor units.
func (s PriceScale) Parse(v string) (int64, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return 0, &ValidationError{Message: "price must be a decimal number"}
	}
	return s.ToMinor(d)
}

// Decimal converts minor units back to a decimal value.
func (s PriceScale) Decimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -int32(s))
}

// Format renders minor units with exactly s decimal places.
func (s PriceScale) Format(minor int64) string {
	return s.Decimal(minor).StringFixed(int32(s))
}

// MulMinor returns price * quantity in minor units. It reports a
// ValidationError instead of wrapping when the product does not fit in
// an int64.
func MulMinor(price, quantity int64) (int64, error) {
	if price == 0 || quantity == 0 {
		return 0, nil
	}
	p := price * quantity
	if p/quantity != price || (quantity == -1 && price == math.MinInt64) {
		return 0, &ValidationError{Message: "amount is out of range"}
	}
	return p, nil
}

// AddMinor returns a + b, or a ValidationError when the sum overflows.
func AddMinor(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, &ValidationError{Message: "amount is out of range"}
	}
	return sum, nil
}
