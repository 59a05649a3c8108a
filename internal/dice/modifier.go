package dice

import (
	"encoding/json"
	"maps"
	"slices"
	"sort"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// DefaultMaxIterations caps the number of re-rolls an exploding, re-rolling
// or unique modifier performs on a single result.
const DefaultMaxIterations = 1000

// Modifier execution order. Lower values run first.
const (
	OrderExplode         = 3
	OrderReRoll          = 4
	OrderUnique          = 5
	OrderMin             = 6
	OrderMax             = 7
	OrderKeep            = 8
	OrderDrop            = 9
	OrderMultiply        = 10
	OrderTarget          = 11
	OrderCriticalSuccess = 12
	OrderCriticalFailure = 13
	OrderSorting         = 14
)

// Modifier transforms the results of a roll.
type Modifier interface {
	// Name identifies the modifier type; a term holds at most one per name.
	Name() string
	// Order controls the execution sequence; lower runs first.
	Order() int
	// Notation returns the notation fragment, e.g. "kh2".
	Notation() string
	// Run mutates results in place.
	Run(results Results, ctx *Context) error
}

// Context is what a modifier can see of the term being rolled.
type Context struct {
	// Die is the dice term being rolled, or nil for roll groups.
	Die *Dice
	// Generator supplies randomness for re-rolls.
	Generator *engine.Generator
}

func (c *Context) generator() *engine.Generator {
	if c == nil || c.Generator == nil {
		return engine.Default()
	}
	return c.Generator
}

// requireDie returns the context die for modifiers that only apply to dice.
func (c *Context) requireDie(action string) (*Dice, error) {
	if c == nil || c.Die == nil {
		return nil, errs.TypeMismatch("%s modifier requires a dice context", action)
	}
	return c.Die, nil
}

// rollResults asserts results are plain dice results.
func rollResults(results Results, action string) (*RollResults, error) {
	rs, ok := results.(*RollResults)
	if !ok {
		return nil, errs.TypeMismatch("%s modifier can only run on dice results, got %T", action, results)
	}
	return rs, nil
}

// guardLoop rejects self-referential modifiers on dice that cannot change value.
func guardLoop(d *Dice, action string) error {
	if d.Min() == d.Max() {
		return &errs.DieActionError{Action: action, Die: d.Notation()}
	}
	return nil
}

// SortModifiers orders modifiers for execution: by Order, then by Name.
func SortModifiers(mods []Modifier) []Modifier {
	out := slices.Clone(mods)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order() != out[j].Order() {
			return out[i].Order() < out[j].Order()
		}
		return out[i].Name() < out[j].Name()
	})
	return out
}

// modifierSet is the canonical modifier storage: keyed by name, iterated by order.
type modifierSet map[string]Modifier

func newModifierSet(mods ...Modifier) modifierSet {
	set := make(modifierSet, len(mods))
	for _, m := range mods {
		if m != nil {
			set[m.Name()] = m
		}
	}
	return set
}

func (s modifierSet) sorted() []Modifier {
	return SortModifiers(slices.Collect(maps.Values(s)))
}

func (s modifierSet) notation() string {
	var b strings.Builder
	for _, m := range s.sorted() {
		b.WriteString(m.Notation())
	}
	return b.String()
}

func (s modifierSet) run(results Results, ctx *Context) error {
	for _, m := range s.sorted() {
		if err := m.Run(results, ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s modifierSet) clone() modifierSet {
	return maps.Clone(s)
}

// modifierJSON builds the common serialized shape of a modifier.
func modifierJSON(m Modifier, extra map[string]any) ([]byte, error) {
	out := map[string]any{
		"type":     "modifier",
		"name":     m.Name(),
		"notation": m.Notation(),
	}
	maps.Copy(out, extra)
	return json.Marshal(out)
}

// comparison is the shared base of modifiers that test results against a
// ComparePoint.
type comparison struct {
	comparePoint *ComparePoint
}

// ComparePoint returns the explicit compare point, or nil when the modifier
// falls back to its default.
func (c comparison) ComparePoint() *ComparePoint { return c.comparePoint }

// isComparePoint reports whether v matches the explicit compare point.
func (c comparison) isComparePoint(v float64) bool {
	return c.comparePoint != nil && c.comparePoint.IsMatch(v)
}

// resolve returns the explicit compare point or the supplied default.
func (c comparison) resolve(def func() *ComparePoint) *ComparePoint {
	if c.comparePoint != nil {
		return c.comparePoint
	}
	return def()
}

func (c comparison) notation() string {
	if c.comparePoint == nil {
		return ""
	}
	return c.comparePoint.Notation()
}
