package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Rounding selects the rounding mode used when reducing a decimal to a fixed
// scale. The zero value is not valid; use ParseRounding or RoundHalfEven.
type Rounding string

const (
	RoundHalfEven Rounding = "ROUND_HALF_EVEN"
	RoundHalfUp   Rounding = "ROUND_HALF_UP"
	RoundDown     Rounding = "ROUND_DOWN"
	RoundUp       Rounding = "ROUND_UP"
	RoundCeiling  Rounding = "ROUND_CEILING"
	RoundFloor    Rounding = "ROUND_FLOOR"
)

// ParseRounding maps a rounding mode name to a Rounding value.
func ParseRounding(s string) (Rounding, error) {
	switch Rounding(s) {
	case RoundHalfEven, RoundHalfUp, RoundDown, RoundUp, RoundCeiling, RoundFloor:
		return Rounding(s), nil
	}
	return "", fmt.Errorf("unknown rounding mode: %q", s)
}

// Quantize reduces x to the given number of fractional digits using the given
// rounding mode. It never touches any shared decimal state.
func Quantize(x decimal.Decimal, scale int32, mode Rounding) decimal.Decimal {
	switch mode {
	case RoundHalfUp:
		return x.Round(scale)
	case RoundDown:
		return x.RoundDown(scale)
	case RoundUp:
		return x.RoundUp(scale)
	case RoundCeiling:
		return x.RoundCeil(scale)
	case RoundFloor:
		return x.RoundFloor(scale)
	default:
		return x.RoundBank(scale)
	}
}

// Quantizer carries the money and rate scales plus the rounding mode for one
// ledger instance. It is an immutable value captured from configuration.
type Quantizer struct {
	MoneyScale int32
	RateScale  int32
	Mode       Rounding
}

// DefaultQuantizer is the contract default: money at 2 digits, rates at 6,
// banker's rounding.
var DefaultQuantizer = Quantizer{MoneyScale: 2, RateScale: 6, Mode: RoundHalfEven}

// Money quantizes a monetary amount.
func (q Quantizer) Money(x decimal.Decimal) decimal.Decimal {
	return Quantize(x, q.MoneyScale, q.Mode)
}

// Rate quantizes an exchange rate.
func (q Quantizer) Rate(x decimal.Decimal) decimal.Decimal {
	return Quantize(x, q.RateScale, q.Mode)
}

// MoneyQuantize quantizes with the default money contract (2 digits, banker's).
func MoneyQuantize(x decimal.Decimal) decimal.Decimal {
	return DefaultQuantizer.Money(x)
}

// RateQuantize quantizes with the default rate contract (6 digits, banker's).
func RateQuantize(x decimal.Decimal) decimal.Decimal {
	return DefaultQuantizer.Rate(x)
}
