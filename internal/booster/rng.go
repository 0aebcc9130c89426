package booster

import "math/rand/v2"

// RNG abstracts the random source so draws can be made deterministic in tests.
// Implementations return values in [0, 1).
type RNG interface {
	Float64() float64
}

// SystemRNG delegates to math/rand/v2's auto-seeded global source.
type SystemRNG struct{}

func (SystemRNG) Float64() float64 { return rand.Float64() }

// NewSeededRNG returns a reproducible source. It is not safe for concurrent
// use; the engine only draws from its goroutine.
func NewSeededRNG(seed uint64) RNG {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
