package engine

const (
	mtN         = 624
	mtM         = 397
	mtMatrixA   = 0x9908b0df
	mtUpperMask = 0x80000000
	mtLowerMask = 0x7fffffff
)

// MT19937 is the 32-bit Mersenne Twister. Identical seeds produce identical
// sequences, which makes it the engine of choice for reproducible fixtures.
type MT19937 struct {
	state [mtN]uint32
	index int
	uses  int
}

// NewMT19937 returns a Mersenne Twister seeded with seed.
func NewMT19937(seed uint32) *MT19937 {
	m := &MT19937{}
	m.Seed(seed)
	return m
}

// Seed resets the generator state.
func (m *MT19937) Seed(seed uint32) {
	m.state[0] = seed
	for i := 1; i < mtN; i++ {
		prev := m.state[i-1]
		m.state[i] = 1812433253*(prev^(prev>>30)) + uint32(i)
	}
	m.index = mtN
	m.uses = 0
}

// AutoSeed seeds from crypto/rand.
func (m *MT19937) AutoSeed() error {
	seed, err := newSeed()
	if err != nil {
		return err
	}
	m.Seed(seed)
	return nil
}

// Next returns the next tempered sample.
func (m *MT19937) Next() uint32 {
	if m.index >= mtN {
		m.twist()
	}
	y := m.state[m.index]
	m.index++
	m.uses++

	y ^= y >> 11
	y ^= (y << 7) & 0x9d2c5680
	y ^= (y << 15) & 0xefc60000
	y ^= y >> 18
	return y
}

// Discard advances the sequence by count samples.
func (m *MT19937) Discard(count int) {
	for i := 0; i < count; i++ {
		m.Next()
	}
}

// UseCount returns the number of samples drawn since the last seed.
func (m *MT19937) UseCount() int {
	return m.uses
}

func (m *MT19937) twist() {
	for i := 0; i < mtN; i++ {
		y := (m.state[i] & mtUpperMask) | (m.state[(i+1)%mtN] & mtLowerMask)
		v := m.state[(i+mtM)%mtN] ^ (y >> 1)
		if y&1 != 0 {
			v ^= mtMatrixA
		}
		m.state[i] = v
	}
	m.index = 0
}
