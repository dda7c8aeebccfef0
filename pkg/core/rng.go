package core

import "math/rand/v2"

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// NewStreamRNG creates a deterministic RNG on an explicit PCG stream. Two RNGs
// with different streams never share a sequence, even for equal seeds.
func NewStreamRNG(seed, stream uint64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(seed, stream))}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }

// FillBernoulli sets every cell of buf to 1 with probability p and 0 otherwise.
// Cells are drawn in index order so equal seeds yield equal buffers.
func FillBernoulli(r *rand.Rand, buf []uint8, p float64) {
	for i := range buf {
		buf[i] = 0
		if r.Float64() < p {
			buf[i] = 1
		}
	}
}

// DeriveSeed mixes a base seed with a sequence of identifiers (rule index,
// restart number, ...) into an independent 64-bit seed using splitmix64.
func DeriveSeed(base uint64, parts ...uint64) uint64 {
	x := splitmix(base)
	for _, p := range parts {
		x = splitmix(x ^ splitmix(p+0x9e3779b97f4a7c15))
	}
	return x
}

func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
