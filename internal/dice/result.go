package dice

import (
	"encoding/json"
	"slices"
	"strings"
)

// Flag names recorded on results by modifiers.
const (
	FlagExplode         = "explode"
	FlagCompound        = "compound"
	FlagPenetrate       = "penetrate"
	FlagReRoll          = "re-roll"
	FlagReRollOnce      = "re-roll-once"
	FlagUnique          = "unique"
	FlagUniqueOnce      = "unique-once"
	FlagDrop            = "drop"
	FlagCriticalSuccess = "critical-success"
	FlagCriticalFailure = "critical-failure"
	FlagTargetSuccess   = "target-success"
	FlagTargetFailure   = "target-failure"
	FlagMin             = "min"
	FlagMax             = "max"
	FlagMultiply        = "multiply"
)

var flagSymbols = map[string]string{
	FlagExplode:         "!",
	FlagCompound:        "!!",
	FlagPenetrate:       "p",
	FlagReRoll:          "r",
	FlagReRollOnce:      "ro",
	FlagUnique:          "u",
	FlagUniqueOnce:      "uo",
	FlagDrop:            "d",
	FlagCriticalSuccess: "**",
	FlagCriticalFailure: "__",
	FlagTargetSuccess:   "*",
	FlagTargetFailure:   "_",
	FlagMin:             "^",
	FlagMax:             "v",
	FlagMultiply:        "x",
}

// FlagSymbol returns the output symbol for a flag. Unknown flags render as
// themselves.
func FlagSymbol(flag string) string {
	if s, ok := flagSymbols[flag]; ok {
		return s
	}
	return flag
}

// Result is a single entry a modifier can act on: one die outcome, or the
// total of a roll group sub-expression.
type Result interface {
	Value() float64
	CalculationValue() float64
	SetCalculationValue(v float64)
	UseInTotal() bool
	SetUseInTotal(use bool)
	AddFlag(flag string)
	Flags() []string
}

// flags is an insertion-ordered set of flag names.
type flags []string

func (f *flags) add(flag string) {
	if !slices.Contains(*f, flag) {
		*f = append(*f, flag)
	}
}

func (f flags) symbols() string {
	var b strings.Builder
	for _, flag := range f {
		b.WriteString(FlagSymbol(flag))
	}
	return b.String()
}

// RollResult is one die outcome.
//
// Invariant: InitialValue never changes after construction. CalculationValue
// equals Value until a modifier overrides it.
type RollResult struct {
	initialValue     float64
	value            float64
	calculationValue float64
	hasCalculation   bool
	flags            flags
	useInTotal       bool
}

// NewRollResult returns a result whose initial value, value and calculation
// value are all v.
func NewRollResult(v float64) *RollResult {
	return &RollResult{initialValue: v, value: v, useInTotal: true}
}

// InitialValue returns the value as first rolled.
func (r *RollResult) InitialValue() float64 { return r.initialValue }

// Value returns the current face value.
func (r *RollResult) Value() float64 { return r.value }

// SetValue replaces the face value, e.g. after a re-roll.
func (r *RollResult) SetValue(v float64) { r.value = v }

// CalculationValue returns the value used when totalling.
func (r *RollResult) CalculationValue() float64 {
	if r.hasCalculation {
		return r.calculationValue
	}
	return r.value
}

// SetCalculationValue overrides the value used when totalling.
func (r *RollResult) SetCalculationValue(v float64) {
	r.calculationValue = v
	r.hasCalculation = true
}

// UseInTotal reports whether the result counts towards totals.
func (r *RollResult) UseInTotal() bool { return r.useInTotal }

// SetUseInTotal includes or excludes the result from totals.
func (r *RollResult) SetUseInTotal(use bool) { r.useInTotal = use }

// AddFlag records that a modifier transformed this result.
func (r *RollResult) AddFlag(flag string) { r.flags.add(flag) }

// Flags returns the applied flag names in the order they were added.
func (r *RollResult) Flags() []string { return slices.Clone([]string(r.flags)) }

// HasFlag reports whether flag has been applied.
func (r *RollResult) HasFlag(flag string) bool { return slices.Contains(r.flags, flag) }

// ModifierFlags returns the concatenated flag symbols, e.g. "!**".
func (r *RollResult) ModifierFlags() string { return r.flags.symbols() }

// String returns the value followed by its flag symbols, e.g. "6!".
func (r *RollResult) String() string {
	return FormatNumber(r.value) + r.ModifierFlags()
}

// MarshalJSON implements json.Marshaler.
func (r *RollResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":             "result",
		"initialValue":     r.initialValue,
		"value":            r.value,
		"calculationValue": r.CalculationValue(),
		"modifiers":        append([]string{}, r.flags...),
		"modifierFlags":    r.ModifierFlags(),
		"useInTotal":       r.useInTotal,
	})
}

// Results is a collection a modifier transforms in place.
type Results interface {
	// Entries returns the results the modifier acts on, in presentation order.
	Entries() []Result
	// Sort reorders the collection by value.
	Sort(descending bool)
}
