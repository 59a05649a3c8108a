package dice

// ReRollModifier replaces results that match its compare point with a fresh
// roll, repeatedly unless once is set.
type ReRollModifier struct {
	comparison
	once bool
}

// NewReRollModifier builds a re-roll modifier. A nil compare point defaults to
// "equals the die's min".
func NewReRollModifier(cp *ComparePoint, once bool) *ReRollModifier {
	return &ReRollModifier{comparison: comparison{cp}, once: once}
}

func (m *ReRollModifier) Name() string { return "re-roll" }
func (m *ReRollModifier) Order() int   { return OrderReRoll }

// Once reports whether at most one re-roll happens per result.
func (m *ReRollModifier) Once() bool { return m.once }

func (m *ReRollModifier) Notation() string {
	n := "r"
	if m.once {
		n += "o"
	}
	return n + m.notation()
}

func (m *ReRollModifier) Run(results Results, ctx *Context) error {
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
	cp := m.resolve(func() *ComparePoint { return &ComparePoint{operator: "=", value: d.Min()} })
	gen := ctx.generator()

	flag := FlagReRoll
	if m.once {
		flag = FlagReRollOnce
	}
	for _, roll := range rs.rolls {
		for i := 0; i < DefaultMaxIterations && cp.IsMatch(roll.Value()); i++ {
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
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *ReRollModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{
		"comparePoint": m.comparePoint,
		"once":         m.once,
	})
}
