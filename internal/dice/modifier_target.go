package dice

import "github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"

// TargetModifier turns results into successes (+1), failures (-1) or
// neither (0).
type TargetModifier struct {
	success *ComparePoint
	failure *ComparePoint
}

// NewTargetModifier builds a target modifier. success is required; failure
// is optional.
func NewTargetModifier(success, failure *ComparePoint) (*TargetModifier, error) {
	if success == nil {
		return nil, errs.RequiredArgument("success compare point")
	}
	return &TargetModifier{success: success, failure: failure}, nil
}

func (m *TargetModifier) Name() string { return "target" }
func (m *TargetModifier) Order() int   { return OrderTarget }

// SuccessComparePoint returns the success threshold.
func (m *TargetModifier) SuccessComparePoint() *ComparePoint { return m.success }

// FailureComparePoint returns the failure threshold, or nil.
func (m *TargetModifier) FailureComparePoint() *ComparePoint { return m.failure }

func (m *TargetModifier) Notation() string {
	n := m.success.Notation()
	if m.failure != nil {
		n += "f" + m.failure.Notation()
	}
	return n
}

// IsSuccess reports whether v meets the success threshold.
func (m *TargetModifier) IsSuccess(v float64) bool { return m.success.IsMatch(v) }

// IsFailure reports whether v meets the failure threshold.
func (m *TargetModifier) IsFailure(v float64) bool {
	return m.failure != nil && m.failure.IsMatch(v)
}

func (m *TargetModifier) Run(results Results, _ *Context) error {
	for _, r := range results.Entries() {
		if !r.UseInTotal() {
			continue
		}
		v := r.CalculationValue()
		switch {
		case m.IsSuccess(v):
			r.SetCalculationValue(1)
			r.AddFlag(FlagTargetSuccess)
		case m.IsFailure(v):
			r.SetCalculationValue(-1)
			r.AddFlag(FlagTargetFailure)
		default:
			r.SetCalculationValue(0)
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *TargetModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{
		"successComparePoint": m.success,
		"failureComparePoint": m.failure,
	})
}
