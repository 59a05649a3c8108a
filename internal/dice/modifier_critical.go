package dice

// CriticalSuccessModifier flags results matching its compare point, by
// default the die's max. Values are unchanged.
type CriticalSuccessModifier struct {
	comparison
}

// NewCriticalSuccessModifier builds a critical success modifier.
func NewCriticalSuccessModifier(cp *ComparePoint) *CriticalSuccessModifier {
	return &CriticalSuccessModifier{comparison{cp}}
}

func (m *CriticalSuccessModifier) Name() string     { return "critical-success" }
func (m *CriticalSuccessModifier) Order() int       { return OrderCriticalSuccess }
func (m *CriticalSuccessModifier) Notation() string { return "cs" + m.notation() }

func (m *CriticalSuccessModifier) Run(results Results, ctx *Context) error {
	return flagMatches(results, ctx, m.comparison, FlagCriticalSuccess, m.Name(), func(d *Dice) float64 { return d.Max() })
}

// MarshalJSON implements json.Marshaler.
func (m *CriticalSuccessModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"comparePoint": m.comparePoint})
}

// CriticalFailureModifier flags results matching its compare point, by
// default the die's min. Values are unchanged.
type CriticalFailureModifier struct {
	comparison
}

// NewCriticalFailureModifier builds a critical failure modifier.
func NewCriticalFailureModifier(cp *ComparePoint) *CriticalFailureModifier {
	return &CriticalFailureModifier{comparison{cp}}
}

func (m *CriticalFailureModifier) Name() string     { return "critical-failure" }
func (m *CriticalFailureModifier) Order() int       { return OrderCriticalFailure }
func (m *CriticalFailureModifier) Notation() string { return "cf" + m.notation() }

func (m *CriticalFailureModifier) Run(results Results, ctx *Context) error {
	return flagMatches(results, ctx, m.comparison, FlagCriticalFailure, m.Name(), func(d *Dice) float64 { return d.Min() })
}

// MarshalJSON implements json.Marshaler.
func (m *CriticalFailureModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"comparePoint": m.comparePoint})
}

func flagMatches(results Results, ctx *Context, c comparison, flag, action string, bound func(*Dice) float64) error {
	cp := c.comparePoint
	if cp == nil {
		d, err := ctx.requireDie(action)
		if err != nil {
			return err
		}
		cp = &ComparePoint{operator: "=", value: bound(d)}
	}
	for _, r := range results.Entries() {
		if cp.IsMatch(r.Value()) {
			r.AddFlag(flag)
		}
	}
	return nil
}
