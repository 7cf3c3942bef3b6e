// Package cancel implements the cancellation metric and the matching noise
// synthesis for the Monte-Carlo Arithmetic backend. When two operands of
// similar magnitude nearly cancel, the exponent of the result drops by
// exactly the number of leading bits lost; noise injected one bit below the
// first cancelled bit marks the remaining digits as untrustworthy.
package cancel

import (
	"golang.org/x/exp/constraints"

	"github.com/floatscope/cancellation/internal/floatbits"
)

// Detect computes the cancellation size, in bits, of the rounded result z of
// a+b or a-b: max(exponent(a), exponent(b)) - exponent(z). Exponents come
// from the raw IEEE fields, so zero and subnormal values use -bias. If any
// of the three values is an infinity or a NaN the exponent arithmetic is
// meaningless and Detect reports ok=false.
func Detect[T constraints.Float](a, b, z T) (bits int, ok bool) {
	if !floatbits.IsFinite(a) || !floatbits.IsFinite(b) || !floatbits.IsFinite(z) {
		return 0, false
	}
	ea := floatbits.Exponent(a)
	if eb := floatbits.Exponent(b); eb > ea {
		ea = eb
	}
	return ea - floatbits.Exponent(z), true
}

// NoiseExponent returns the exponent at which noise is injected for a result
// exponent ez and a cancellation of the given size: one bit below the first
// cancelled bit.
func NoiseExponent(ez, bits int) int {
	return ez - (bits - 1)
}

// Noise builds the perturbation (u - 0.5) * 2^en from a uniform draw
// u in [0,1). The magnitude is forced by shifting the IEEE exponent field of
// the centered value rather than by multiplying, so the scaling itself adds
// no rounding error. A target exponent that underflows the field flushes to
// zero; one that would reach the Inf/NaN code saturates just below it.
func Noise(en int, u float64) float64 {
	d := u - 0.5
	if d == 0 {
		return 0
	}
	e := floatbits.BiasedExponent64(d) + en
	switch {
	case e <= 0:
		return 0
	case e >= floatbits.ExpMask64:
		e = floatbits.ExpMask64 - 1
	}
	return floatbits.WithBiasedExponent64(d, e)
}
