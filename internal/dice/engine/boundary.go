package engine

import "math"

// Min always returns the lowest sample, so every roll lands on a die's minimum.
// It exists for deterministic boundary tests.
type Min struct{}

// Next returns 0.
func (Min) Next() uint32 { return 0 }

// Max always returns the top of its range, so every roll lands on a die's
// maximum when Top is math.MaxUint32.
type Max struct {
	Top uint32
}

// NewMax returns a Max engine covering the full 32-bit range.
func NewMax() Max {
	return Max{Top: math.MaxUint32}
}

// Next returns m.Top.
func (m Max) Next() uint32 { return m.Top }
