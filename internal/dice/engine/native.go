package engine

import (
	"math/rand/v2"
)

// Native is the default engine: a fast, non-cryptographic PCG source.
type Native struct {
	rng *rand.Rand
}

// NewNative returns a Native engine seeded from the runtime's entropy.
func NewNative() *Native {
	return &Native{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewNativeSeeded returns a Native engine with a fixed seed.
func NewNativeSeeded(seed uint64) *Native {
	return &Native{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Next returns the next sample.
func (n *Native) Next() uint32 {
	return n.rng.Uint32()
}
