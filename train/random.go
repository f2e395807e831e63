package train

import "math/rand/v2"

// newRand returns a deterministic generator for the given seed and stream.
// Distinct streams under one seed are independent.
func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream)) //nolint:gosec
}

// initInput fills w with values uniform in [-0.5/dim, 0.5/dim).
// The same (seed, dim) pair always produces the same matrix.
func initInput(w []float32, dim int, seed uint64) {
	r := newRand(seed, 0)
	for i := range w {
		w[i] = (r.Float32() - 0.5) / float32(dim)
	}
}
