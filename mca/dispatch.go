package mca

import (
	"math"

	"golang.org/x/exp/constraints"

	"github.com/floatscope/cancellation/internal/cancel"
	"github.com/floatscope/cancellation/internal/floatbits"
)

// perturb runs the cancellation pipeline on z, the already-rounded result
// of x+y or x-y. If the cancellation reaches the tolerance it draws from
// the calling goroutine's stream and injects noise one bit below the first
// cancelled bit. Noise is synthesized in binary64 for both widths and the
// perturbed result rounded once, back to T.
func perturb[T constraints.Float](b *Backend, x, y, z T) T {
	bits, ok := cancel.Detect(x, y, z)
	if !ok || bits < b.ctx.tolerance {
		return z
	}
	if b.ctx.warning {
		b.log.Warn("cancellation detected", "size", bits)
	}
	en := cancel.NoiseExponent(floatbits.Exponent(z), bits)
	u := b.rng.Draw(b.ctx.chooseSeed, b.ctx.seed)
	return T(float64(z) + cancel.Noise(en, u))
}

// AddFloat32 returns a+b, perturbed when the addition cancels.
func (b *Backend) AddFloat32(x, y float32) float32 {
	return perturb(b, x, y, x+y)
}

// SubFloat32 returns a-b, perturbed when the subtraction cancels.
func (b *Backend) SubFloat32(x, y float32) float32 {
	return perturb(b, x, y, x-y)
}

// MulFloat32 is a plain IEEE multiply; products cannot cancel.
func (b *Backend) MulFloat32(x, y float32) float32 {
	return x * y
}

// DivFloat32 is a plain IEEE divide; quotients cannot cancel.
func (b *Backend) DivFloat32(x, y float32) float32 {
	return x / y
}

// AddFloat64 returns a+b, perturbed when the addition cancels.
func (b *Backend) AddFloat64(x, y float64) float64 {
	return perturb(b, x, y, x+y)
}

// SubFloat64 returns a-b, perturbed when the subtraction cancels.
func (b *Backend) SubFloat64(x, y float64) float64 {
	return perturb(b, x, y, x-y)
}

// MulFloat64 is a plain IEEE multiply; products cannot cancel.
func (b *Backend) MulFloat64(x, y float64) float64 {
	return x * y
}

// DivFloat64 is a plain IEEE divide; quotients cannot cancel.
func (b *Backend) DivFloat64(x, y float64) float64 {
	return x / y
}

// FMAFloat64 computes the fused multiply-add through the platform routine.
// The fused path runs no cancellation detection even though its final
// addition can cancel; that is a deliberate product decision, not an
// oversight.
func (b *Backend) FMAFloat64(x, y, z float64) float64 {
	return math.FMA(x, y, z)
}

// FMAFloat32 computes the fused multiply-add in double precision and rounds
// once to float32. Like FMAFloat64 it bypasses cancellation detection.
func (b *Backend) FMAFloat32(x, y, z float32) float32 {
	return float32(math.FMA(float64(x), float64(y), float64(z)))
}
