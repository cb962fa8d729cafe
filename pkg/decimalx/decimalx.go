// Package decimalx adds the handful of transcendental operations
// shopspring/decimal doesn't ship (square root, natural log, integer
// power) so that the risk and pricing packages never have to drop to
// float64 and back for something as routine as math.Sqrt(variance).
package decimalx

import (
	"github.com/shopspring/decimal"
)

// epsilon is the absolute step size at which the Newton iterations below
// stop, and the term size at which exp's series stops.
var epsilon = decimal.NewFromFloat(1e-12)

var (
	two  = decimal.NewFromInt(2)
	half = decimal.NewFromFloat(0.5)
)

// Sqrt computes the square root of a non-negative decimal via Newton's
// method, seeded from a float64 guess and refined to epsilon precision.
// It panics on a negative input; callers that may see negative variance
// due to accumulated rounding should clamp to zero first.
func Sqrt(x decimal.Decimal) decimal.Decimal {
	if x.IsNegative() {
		panic("decimalx: Sqrt of negative number")
	}
	if x.IsZero() {
		return decimal.Zero
	}

	guess := decimal.NewFromFloat(x.InexactFloat64())
	if guess.IsZero() || guess.IsNegative() {
		guess = decimal.NewFromInt(1)
	}

	for i := 0; i < 100; i++ {
		next := guess.Add(x.Div(guess)).Mul(half)
		diff := next.Sub(guess).Abs()
		guess = next
		if diff.LessThan(epsilon) {
			break
		}
	}
	return guess
}

// Ln computes the natural logarithm of a positive decimal via Newton's
// method on e^y = x, seeded from lnSeed's float64 estimate.
func Ln(x decimal.Decimal) decimal.Decimal {
	if !x.IsPositive() {
		panic("decimalx: Ln of non-positive number")
	}
	f := x.InexactFloat64()
	y := decimal.NewFromFloat(lnSeed(f))

	for i := 0; i < 100; i++ {
		ey := exp(y)
		next := y.Add(x.Sub(ey).Div(ey))
		diff := next.Sub(y).Abs()
		y = next
		if diff.LessThan(epsilon) {
			break
		}
	}
	return y
}

// PowI raises x to a non-negative integer power by repeated squaring.
func PowI(x decimal.Decimal, n int) decimal.Decimal {
	if n < 0 {
		panic("decimalx: PowI with negative exponent")
	}
	result := decimal.NewFromInt(1)
	base := x
	for n > 0 {
		if n&1 == 1 {
			result = result.Mul(base)
		}
		base = base.Mul(base)
		n >>= 1
	}
	return result
}

// exp computes e^y via a truncated Taylor series, evaluated at each step
// of the Newton iteration in Ln; it is not exported because it is only a
// helper solver, not a general-purpose decimal exponential.
func exp(y decimal.Decimal) decimal.Decimal {
	term := decimal.NewFromInt(1)
	sum := decimal.NewFromInt(1)
	for i := 1; i <= 30; i++ {
		term = term.Mul(y).Div(decimal.NewFromInt(int64(i)))
		sum = sum.Add(term)
		if term.Abs().LessThan(epsilon) {
			break
		}
	}
	return sum
}

func lnSeed(f float64) float64 {
	// math.Log would be the obvious seed but importing math here just for
	// a starting guess reintroduces the float dependency this package
	// exists to avoid; dividing out whole powers of e and taking
	// ln(f) ≈ f-1 on the remainder is seed enough for Newton to take over.
	if f <= 0 {
		return 0
	}
	guess := 0.0
	for f > 2.718281828459045 {
		f /= 2.718281828459045
		guess += 1
	}
	for f < 0.36787944117144233 {
		f *= 2.718281828459045
		guess -= 1
	}
	return guess + (f - 1)
}
