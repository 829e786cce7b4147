// Package randutil builds reproducible random generators.
package randutil

import rand "math/rand/v2"

// seedOffset separates the two PCG seeds derived from one value.
const seedOffset = 0x9e3779b97f4a7c15

// New returns a PCG-backed generator that yields the same sequence for the
// same seed.
func New(seed int64) *rand.Rand {
	base := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(base), splitmix(base+seedOffset)))
}

// splitmix is the SplitMix64 finalizer.
func splitmix(v uint64) uint64 {
	v = (v ^ (v >> 30)) * 0xbf58476d1ce4e5b9
	v = (v ^ (v >> 27)) * 0x94d049bb133111eb
	return v ^ (v >> 31)
}
