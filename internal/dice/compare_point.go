package dice

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// CompareOperators lists every accepted comparison operator.
var CompareOperators = []string{"=", "==", "!=", "<>", "!", "<", ">", "<=", ">="}

// IsCompareOperator reports whether op is a known comparison operator.
func IsCompareOperator(op string) bool {
	return slices.Contains(CompareOperators, op)
}

// ComparePoint is an operator and threshold used to test a roll value.
//
// Invariant: operator is one of CompareOperators and value is finite.
type ComparePoint struct {
	operator string
	value    float64
}

// NewComparePoint validates operator and value.
func NewComparePoint(operator string, value float64) (*ComparePoint, error) {
	if operator == "" {
		return nil, errs.RequiredArgument("operator")
	}
	if !IsCompareOperator(operator) {
		return nil, errs.CompareOperator(operator)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, errs.TypeMismatch("compare point value must be finite, got %v", value)
	}
	return &ComparePoint{operator: operator, value: value}, nil
}

// MustComparePoint is like NewComparePoint but panics on error.
func MustComparePoint(operator string, value float64) *ComparePoint {
	cp, err := NewComparePoint(operator, value)
	if err != nil {
		panic("dice: MustComparePoint: " + err.Error())
	}
	return cp
}

// Operator returns the comparison operator.
func (c *ComparePoint) Operator() string { return c.operator }

// Value returns the threshold.
func (c *ComparePoint) Value() float64 { return c.value }

// IsMatch applies the operator to n.
func (c *ComparePoint) IsMatch(n float64) bool {
	switch c.operator {
	case "=", "==":
		return n == c.value
	case "!=", "<>", "!":
		return n != c.value
	case "<":
		return n < c.value
	case ">":
		return n > c.value
	case "<=":
		return n <= c.value
	case ">=":
		return n >= c.value
	}
	return false
}

// MatchAny is IsMatch for loosely typed input. Only numbers and numeric
// strings can match; booleans, nil and everything else never do.
func (c *ComparePoint) MatchAny(v any) bool {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return err == nil && c.IsMatch(f)
	}
	f, ok := toFloat(v)
	return ok && c.IsMatch(f)
}

// Notation returns the operator followed by the value, e.g. ">=5".
func (c *ComparePoint) Notation() string {
	return c.operator + FormatNumber(c.value)
}

func (c *ComparePoint) String() string { return c.Notation() }

// MarshalJSON implements json.Marshaler.
func (c *ComparePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"name":     "compare-point",
		"type":     "comparePoint",
		"operator": c.operator,
		"value":    c.value,
	})
}
