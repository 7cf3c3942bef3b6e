// Package rng provides the per-goroutine uniform random streams that feed
// noise injection. Streams are lazily seeded, never shared across
// goroutines, and snapshot/restorable so a cooperating instrumentation
// layer can temporarily redirect a goroutine's stream to a fixed seed.
package rng

import (
	rand "math/rand/v2"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Stream produces uniform float64 values in [0,1) from a PCG generator.
// The state is copyable by value; a plain struct copy is a full snapshot.
// The zero value is unseeded; call Reseed before drawing.
type Stream struct {
	pcg rand.PCG
}

// Reseed resets the stream deterministically from a single 64-bit seed.
// The two PCG state words are derived through the splitmix64 finalizer so
// that weak seeds (small integers, adjacent timestamps) still produce
// well-separated sequences.
func (s *Stream) Reseed(seed uint64) {
	s.pcg = *rand.NewPCG(mix(seed), mix(seed+goldenRatio64))
}

// Float64 returns the next uniform value in [0,1).
func (s *Stream) Float64() float64 {
	return float64(s.pcg.Uint64()>>11) / (1 << 53)
}

// mix is the splitmix64 finalizer.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
