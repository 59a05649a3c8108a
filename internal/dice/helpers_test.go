package dice_test

import (
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
)

// riggedEngine makes a Generator return chosen faces, in order, for dice in
// [lo, hi]. After the faces run out every roll lands on lo.
type riggedEngine struct {
	samples []uint32
	pos     int
}

func rigged(lo, hi int, faces ...int) *engine.Generator {
	span := uint64(hi-lo) + 1
	e := &riggedEngine{}
	for _, f := range faces {
		idx := uint64(f - lo)
		top := (idx<<32 + span - 1) / span
		e.samples = append(e.samples, uint32(top), 0)
	}
	return engine.NewGenerator(e)
}

func (e *riggedEngine) Next() uint32 {
	if e.pos >= len(e.samples) {
		return 0
	}
	s := e.samples[e.pos]
	e.pos++
	return s
}

func values(rs *dice.RollResults) []float64 {
	var out []float64
	for _, r := range rs.Rolls() {
		out = append(out, r.Value())
	}
	return out
}

func mustDice(sides, qty float64, opts ...dice.Option) *dice.Dice {
	d, err := dice.NewStandardDice(sides, qty, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func cp(op string, v float64) *dice.ComparePoint {
	return dice.MustComparePoint(op, v)
}
