package dice

import (
	"encoding/json"
	"math"
	"slices"
	"sort"
	"strings"
)

// ResultGroup holds the outcome of a RollGroup. A roll-group-level group
// contains one sub-expression group per expression; a sub-expression group
// contains the rolled tokens of that expression.
type ResultGroup struct {
	results          []Token
	isRollGroup      bool
	calculationValue float64
	hasCalculation   bool
	flags            flags
	useInTotal       bool
}

// NewResultGroup returns a group over results.
func NewResultGroup(results []Token, isRollGroup bool) *ResultGroup {
	return &ResultGroup{results: slices.Clone(results), isRollGroup: isRollGroup, useInTotal: true}
}

// Results returns the group's tokens.
func (g *ResultGroup) Results() []Token { return slices.Clone(g.results) }

// IsRollGroup reports whether this is the outer group of a RollGroup.
func (g *ResultGroup) IsRollGroup() bool { return g.isRollGroup }

// Value is the group's numeric value. For a roll group it is the sum of the
// sub-expressions used in the total; for a sub-expression it is the
// arithmetic result of its tokens. A malformed expression yields NaN.
func (g *ResultGroup) Value() float64 {
	if g.isRollGroup {
		var total float64
		for _, t := range g.results {
			if r, ok := t.(Result); ok {
				if r.UseInTotal() {
					total += r.CalculationValue()
				}
				continue
			}
			if n, ok := t.(Number); ok {
				total += float64(n)
			}
		}
		return total
	}
	v, err := Evaluate(g.results, nil)
	if err != nil {
		return math.NaN()
	}
	return v
}

// CalculationValue implements Result.
func (g *ResultGroup) CalculationValue() float64 {
	if g.hasCalculation {
		return g.calculationValue
	}
	return g.Value()
}

// SetCalculationValue implements Result.
func (g *ResultGroup) SetCalculationValue(v float64) {
	g.calculationValue = v
	g.hasCalculation = true
}

// UseInTotal implements Result.
func (g *ResultGroup) UseInTotal() bool { return g.useInTotal }

// SetUseInTotal implements Result.
func (g *ResultGroup) SetUseInTotal(use bool) { g.useInTotal = use }

// AddFlag implements Result.
func (g *ResultGroup) AddFlag(flag string) { g.flags.add(flag) }

// Flags implements Result.
func (g *ResultGroup) Flags() []string { return slices.Clone([]string(g.flags)) }

// ModifierFlags returns the concatenated flag symbols.
func (g *ResultGroup) ModifierFlags() string { return g.flags.symbols() }

// Entries implements Results. A roll group with a single sub-expression
// exposes the individual die results inside it; with several it exposes the
// sub-expressions themselves.
func (g *ResultGroup) Entries() []Result {
	if g.isRollGroup && len(g.results) == 1 {
		if sub, ok := g.results[0].(*ResultGroup); ok {
			return sub.Entries()
		}
	}
	var out []Result
	for _, t := range g.results {
		switch v := t.(type) {
		case *RollResults:
			if !g.isRollGroup {
				out = append(out, v.Entries()...)
			}
		case *ResultGroup:
			out = append(out, v)
		}
	}
	return out
}

// Sort implements Results. Sub-expressions are reordered as a whole; inside
// a single sub-expression each dice term is sorted on its own.
func (g *ResultGroup) Sort(descending bool) {
	if g.isRollGroup && len(g.results) > 1 {
		sort.SliceStable(g.results, func(i, j int) bool {
			a, b := tokenValue(g.results[i]), tokenValue(g.results[j])
			if descending {
				return a > b
			}
			return a < b
		})
		return
	}
	for _, t := range g.results {
		switch v := t.(type) {
		case *RollResults:
			v.Sort(descending)
		case *ResultGroup:
			if !g.isRollGroup || len(g.results) == 1 {
				v.Sort(descending)
			}
		}
	}
}

func tokenValue(t Token) float64 {
	switch v := t.(type) {
	case *ResultGroup:
		return v.Value()
	case *RollResults:
		return v.Value()
	case Number:
		return float64(v)
	}
	return 0
}

// String renders the group, e.g. "{[3, 5]+2, [6]}d".
func (g *ResultGroup) String() string {
	if g.isRollGroup {
		parts := make([]string, len(g.results))
		for i, t := range g.results {
			parts[i] = Output([]Token{t})
		}
		return "{" + strings.Join(parts, ", ") + "}" + g.ModifierFlags()
	}
	return Output(g.results) + g.ModifierFlags()
}

// MarshalJSON implements json.Marshaler.
func (g *ResultGroup) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":             "result-group",
		"rolls":            TokensJSON(g.results),
		"isRollGroup":      g.isRollGroup,
		"value":            jsonNumber(g.Value()),
		"calculationValue": jsonNumber(g.CalculationValue()),
		"modifiers":        append([]string{}, g.flags...),
		"modifierFlags":    g.ModifierFlags(),
		"useInTotal":       g.useInTotal,
	})
}
