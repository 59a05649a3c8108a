package dice

import (
	"math"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

func finite(v float64, what string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errs.TypeMismatch("%s must be finite, got %v", what, v)
	}
	return nil
}

// MinModifier raises calculation values below a floor to the floor.
type MinModifier struct {
	min float64
}

// NewMinModifier builds a min modifier.
func NewMinModifier(floor float64) (*MinModifier, error) {
	if err := finite(floor, "min"); err != nil {
		return nil, err
	}
	return &MinModifier{min: floor}, nil
}

func (m *MinModifier) Name() string     { return "min" }
func (m *MinModifier) Order() int       { return OrderMin }
func (m *MinModifier) Min() float64     { return m.min }
func (m *MinModifier) Notation() string { return "min" + FormatNumber(m.min) }

func (m *MinModifier) Run(results Results, _ *Context) error {
	for _, r := range results.Entries() {
		if r.CalculationValue() < m.min {
			r.SetCalculationValue(m.min)
			r.AddFlag(FlagMin)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *MinModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"min": m.min})
}

// MaxModifier lowers calculation values above a ceiling to the ceiling.
type MaxModifier struct {
	max float64
}

// NewMaxModifier builds a max modifier.
func NewMaxModifier(ceiling float64) (*MaxModifier, error) {
	if err := finite(ceiling, "max"); err != nil {
		return nil, err
	}
	return &MaxModifier{max: ceiling}, nil
}

func (m *MaxModifier) Name() string     { return "max" }
func (m *MaxModifier) Order() int       { return OrderMax }
func (m *MaxModifier) Max() float64     { return m.max }
func (m *MaxModifier) Notation() string { return "max" + FormatNumber(m.max) }

func (m *MaxModifier) Run(results Results, _ *Context) error {
	for _, r := range results.Entries() {
		if r.CalculationValue() > m.max {
			r.SetCalculationValue(m.max)
			r.AddFlag(FlagMax)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *MaxModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"max": m.max})
}

// MultiplyModifier scales the calculation value of results matching its
// compare point, or of every result when it has none.
type MultiplyModifier struct {
	comparison
	factor float64
}

// NewMultiplyModifier builds a multiply modifier.
func NewMultiplyModifier(factor float64, cp *ComparePoint) (*MultiplyModifier, error) {
	if err := finite(factor, "multiply factor"); err != nil {
		return nil, err
	}
	return &MultiplyModifier{comparison: comparison{cp}, factor: factor}, nil
}

func (m *MultiplyModifier) Name() string     { return "multiply" }
func (m *MultiplyModifier) Order() int       { return OrderMultiply }
func (m *MultiplyModifier) Factor() float64  { return m.factor }
func (m *MultiplyModifier) Notation() string { return "mul" + FormatNumber(m.factor) + m.notation() }

func (m *MultiplyModifier) Run(results Results, _ *Context) error {
	for _, r := range results.Entries() {
		if m.comparePoint != nil && !m.isComparePoint(r.Value()) {
			continue
		}
		r.SetCalculationValue(r.CalculationValue() * m.factor)
		r.AddFlag(FlagMultiply)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *MultiplyModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"factor": m.factor, "comparePoint": m.comparePoint})
}
