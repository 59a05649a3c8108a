package dice

import (
	"encoding/json"
	"slices"
	"sort"
	"strings"
)

// RollResults holds every outcome of rolling one Dice term.
type RollResults struct {
	rolls []*RollResult
}

// NewRollResults returns a collection of rolls.
func NewRollResults(rolls ...*RollResult) *RollResults {
	return &RollResults{rolls: slices.Clone(rolls)}
}

// Rolls returns the individual results.
func (rs *RollResults) Rolls() []*RollResult { return slices.Clone(rs.rolls) }

// Len returns the number of results.
func (rs *RollResults) Len() int { return len(rs.rolls) }

// Value sums CalculationValue over results that are used in the total.
func (rs *RollResults) Value() float64 {
	var total float64
	for _, r := range rs.rolls {
		if r.UseInTotal() {
			total += r.CalculationValue()
		}
	}
	return total
}

// Entries implements Results.
func (rs *RollResults) Entries() []Result {
	out := make([]Result, len(rs.rolls))
	for i, r := range rs.rolls {
		out[i] = r
	}
	return out
}

// Sort implements Results.
func (rs *RollResults) Sort(descending bool) {
	sort.SliceStable(rs.rolls, func(i, j int) bool {
		if descending {
			return rs.rolls[i].Value() > rs.rolls[j].Value()
		}
		return rs.rolls[i].Value() < rs.rolls[j].Value()
	})
}

func (rs *RollResults) setRolls(rolls []*RollResult) { rs.rolls = rolls }

// String renders the rolls as "[3, 6!, 2d]".
func (rs *RollResults) String() string {
	parts := make([]string, len(rs.rolls))
	for i, r := range rs.rolls {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// MarshalJSON implements json.Marshaler.
func (rs *RollResults) MarshalJSON() ([]byte, error) {
	rolls := rs.rolls
	if rolls == nil {
		rolls = []*RollResult{}
	}
	return json.Marshal(map[string]any{
		"type":  "roll-results",
		"rolls": rolls,
		"value": rs.Value(),
	})
}
