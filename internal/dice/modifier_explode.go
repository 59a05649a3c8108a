package dice

import (
	"strconv"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// ExplodeModifier rolls again while results match its compare point.
// Compound sums the extra rolls into one result; penetrate lowers each extra
// roll by one.
type ExplodeModifier struct {
	comparison
	compound  bool
	penetrate bool
	limit     int
}

// NewExplodeModifier builds an explode modifier. A nil compare point defaults
// to "equals the die's max"; a zero limit means DefaultMaxIterations.
func NewExplodeModifier(cp *ComparePoint, compound, penetrate bool, limit int) (*ExplodeModifier, error) {
	if limit < 0 {
		return nil, errs.TypeMismatch("explode limit must not be negative, got %d", limit)
	}
	return &ExplodeModifier{comparison: comparison{cp}, compound: compound, penetrate: penetrate, limit: limit}, nil
}

func (m *ExplodeModifier) Name() string { return "explode" }
func (m *ExplodeModifier) Order() int   { return OrderExplode }

// Compound reports whether extra rolls are summed into the triggering roll.
func (m *ExplodeModifier) Compound() bool { return m.compound }

// Penetrate reports whether extra rolls are lowered by one.
func (m *ExplodeModifier) Penetrate() bool { return m.penetrate }

// MaxIterations returns the number of extra rolls allowed per result.
func (m *ExplodeModifier) MaxIterations() int {
	if m.limit == 0 || m.limit > DefaultMaxIterations {
		return DefaultMaxIterations
	}
	return m.limit
}

func (m *ExplodeModifier) Notation() string {
	n := "!"
	if m.compound {
		n += "!"
	}
	if m.penetrate {
		n += "p"
	}
	if m.limit > 0 {
		n += strconv.Itoa(m.limit)
	}
	return n + m.notation()
}

func (m *ExplodeModifier) Run(results Results, ctx *Context) error {
	rs, err := rollResults(results, m.Name())
	if err != nil {
		return err
	}
	d, err := ctx.requireDie(m.Name())
	if err != nil {
		return err
	}
	if err := guardLoop(d, m.Name()); err != nil {
		return err
	}
	cp := m.resolve(func() *ComparePoint { return &ComparePoint{operator: "=", value: d.Max()} })
	gen := ctx.generator()

	var parsed []*RollResult
	for _, roll := range rs.rolls {
		subRolls := []*RollResult{roll}
		compareValue := roll.Value()
		for i := 0; i < m.MaxIterations() && cp.IsMatch(compareValue); i++ {
			prev := subRolls[len(subRolls)-1]
			next, err := d.RollOnce(gen)
			if err != nil {
				return err
			}
			compareValue = next.Value()
			prev.AddFlag(FlagExplode)
			if m.penetrate {
				prev.AddFlag(FlagPenetrate)
				next.SetValue(next.Value() - 1)
			}
			subRolls = append(subRolls, next)
		}

		if !m.compound || len(subRolls) == 1 {
			parsed = append(parsed, subRolls...)
			continue
		}

		var sum float64
		for _, r := range subRolls {
			sum += r.Value()
		}
		compounded := NewRollResult(roll.InitialValue())
		compounded.SetValue(sum)
		for _, f := range roll.flags {
			if f != FlagExplode && f != FlagPenetrate {
				compounded.AddFlag(f)
			}
		}
		compounded.AddFlag(FlagCompound)
		if m.penetrate {
			compounded.AddFlag(FlagPenetrate)
		}
		parsed = append(parsed, compounded)
	}
	rs.setRolls(parsed)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *ExplodeModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{
		"comparePoint":  m.comparePoint,
		"compound":      m.compound,
		"penetrate":     m.penetrate,
		"maxIterations": m.MaxIterations(),
	})
}
