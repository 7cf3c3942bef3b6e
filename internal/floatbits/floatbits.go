// Package floatbits reads and writes IEEE-754 fields directly from float
// bit patterns. The cancellation detector and the noise synthesizer both
// work on raw exponent fields, never on logarithms, so that zeros and
// subnormals stay cheap and deterministic.
package floatbits

import (
	"math"

	"golang.org/x/exp/constraints"
)

// IEEE-754 binary32/binary64 layout constants.
const (
	MantBits32 = 23
	ExpMask32  = 1<<8 - 1
	Bias32     = 127

	MantBits64 = 52
	ExpMask64  = 1<<11 - 1
	Bias64     = 1023
)

// Exponent returns the unbiased binary exponent of v, read straight from
// the raw exponent field. Zero and subnormal values report -bias (-127 for
// float32, -1023 for float64); infinities and NaNs report bias+1.
func Exponent[T constraints.Float](v T) int {
	switch any(v).(type) {
	case float32:
		return int(math.Float32bits(float32(v))>>MantBits32&ExpMask32) - Bias32
	default:
		return int(math.Float64bits(float64(v))>>MantBits64&ExpMask64) - Bias64
	}
}

// IsFinite reports whether v is neither an infinity nor a NaN, by checking
// the raw exponent field for the all-ones pattern.
func IsFinite[T constraints.Float](v T) bool {
	switch any(v).(type) {
	case float32:
		return math.Float32bits(float32(v))>>MantBits32&ExpMask32 != ExpMask32
	default:
		return math.Float64bits(float64(v))>>MantBits64&ExpMask64 != ExpMask64
	}
}

// BiasedExponent64 returns the raw (biased) exponent field of f.
func BiasedExponent64(f float64) int {
	return int(math.Float64bits(f) >> MantBits64 & ExpMask64)
}

// WithBiasedExponent64 returns f with its raw exponent field replaced by e.
// The sign and mantissa bits are untouched. e must be in [0, ExpMask64].
func WithBiasedExponent64(f float64, e int) float64 {
	bits := math.Float64bits(f) &^ (uint64(ExpMask64) << MantBits64)
	return math.Float64frombits(bits | uint64(e)<<MantBits64)
}
