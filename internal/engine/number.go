package engine

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxExponent bounds the adjusted exponent (the power of ten of the leading
// digit) of any decimal accepted from input. It matches the decimal128 range,
// so rendering or rescaling an accepted value stays cheap.
const MaxExponent = 6144

// Digits returns the number of decimal digits of |x|; zero has one digit.
func Digits(x *big.Int) int {
	if x.Sign() == 0 {
		return 1
	}
	// Past 2^16 bits every value is out of range; an estimate is enough.
	if bl := x.BitLen(); bl > 1<<16 {
		return int(float64(bl)*math.Log10(2)) + 1
	}
	return len(new(big.Int).Abs(x).String())
}

// Adjusted returns the exponent of the leading digit of d: 1 for 12.5, -3 for
// 0.00125. Zero reports 0.
func Adjusted(d decimal.Decimal) int64 {
	c := d.Coefficient()
	if c.Sign() == 0 {
		return 0
	}
	return int64(d.Exponent()) + int64(Digits(c)) - 1
}

// InRange reports whether d can be compared and rendered without
// building huge numbers: its exponent lies within ±2*MaxExponent and, unless
// d is zero, its leading digit within ±MaxExponent.
func InRange(d decimal.Decimal) bool {
	e := int64(d.Exponent())
	if e > 2*MaxExponent || e < -2*MaxExponent {
		return false
	}
	if d.Coefficient().Sign() == 0 {
		return true
	}
	a := Adjusted(d)
	return a <= MaxExponent && a >= -MaxExponent
}
