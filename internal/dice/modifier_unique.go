package dice

import "slices"

// UniqueModifier re-rolls results that duplicate an earlier result. With a
// compare point only duplicates matching it are re-rolled.
type UniqueModifier struct {
	comparison
	once bool
}

// NewUniqueModifier builds a unique modifier.
func NewUniqueModifier(cp *ComparePoint, once bool) *UniqueModifier {
	return &UniqueModifier{comparison: comparison{cp}, once: once}
}

func (m *UniqueModifier) Name() string { return "unique" }
func (m *UniqueModifier) Order() int   { return OrderUnique }

// Once reports whether at most one re-roll happens per result.
func (m *UniqueModifier) Once() bool { return m.once }

func (m *UniqueModifier) Notation() string {
	n := "u"
	if m.once {
		n += "o"
	}
	return n + m.notation()
}

func (m *UniqueModifier) Run(results Results, ctx *Context) error {
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
	gen := ctx.generator()

	flag := FlagUnique
	if m.once {
		flag = FlagUniqueOnce
	}
	seen := make([]float64, 0, len(rs.rolls))
	for i, roll := range rs.rolls {
		if i > 0 {
			for n := 0; n < DefaultMaxIterations && m.isDuplicate(roll.Value(), seen); n++ {
				next, err := d.RollOnce(gen)
				if err != nil {
					return err
				}
				roll.SetValue(next.InitialValue())
				roll.AddFlag(flag)
				if m.once {
					break
				}
			}
		}
		seen = append(seen, roll.Value())
	}
	return nil
}

func (m *UniqueModifier) isDuplicate(v float64, seen []float64) bool {
	if !slices.Contains(seen, v) {
		return false
	}
	return m.comparePoint == nil || m.isComparePoint(v)
}

// MarshalJSON implements json.Marshaler.
func (m *UniqueModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{
		"comparePoint": m.comparePoint,
		"once":         m.once,
	})
}
