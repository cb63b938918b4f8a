// Package units converts between the abstract accounting unit and a
// resource's native time unit. Conversion is display-only; stored
// quantities are always accounting units.
package units

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrInvalidFactor = errors.New("invalid unit factor")

// ParseFactor validates a factor string. Factors must be strictly positive.
func ParseFactor(raw string) (decimal.Decimal, error) {
	factor, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidFactor
	}
	if !factor.IsPositive() {
		return decimal.Decimal{}, ErrInvalidFactor
	}
	return factor, nil
}

// ToNative renders an accounting amount in the resource's native unit.
func ToNative(amount int64, factor decimal.Decimal) string {
	return decimal.NewFromInt(amount).Mul(factor).String()
}

// FromNative converts a native quantity back to whole accounting units,
// banker's rounding, for callers that took input in native units.
func FromNative(native string, factor decimal.Decimal) (int64, error) {
	value, err := decimal.NewFromString(native)
	if err != nil {
		return 0, ErrInvalidFactor
	}
	if factor.IsZero() {
		return 0, ErrInvalidFactor
	}
	return value.Div(factor).RoundBank(0).IntPart(), nil
}
