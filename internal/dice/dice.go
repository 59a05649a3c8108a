// Package dice is the roll data model: dice terms and roll groups, the
// modifiers that transform their results, the results themselves, and the
// arithmetic that combines them into a total.
package dice

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// MaxQty is the largest number of dice a single term may roll.
const MaxQty = 999

// Kind is the dice variant.
type Kind int

const (
	KindStandard Kind = iota
	KindPercentile
	KindFudge
)

// Name returns the serialized name of the variant.
func (k Kind) Name() string {
	switch k {
	case KindPercentile:
		return "percentile-dice"
	case KindFudge:
		return "fudge-dice"
	default:
		return "standard-dice"
	}
}

// Dice is a dice term such as 4d6, 2d% or dF.
//
// Invariant: 1 <= Qty() <= MaxQty; Min() <= Max(); both are safe integers.
type Dice struct {
	kind        Kind
	sides       float64
	nonBlanks   int
	qty         int
	min         float64
	max         float64
	modifiers   modifierSet
	description *Description
}

// Option customises a Dice at construction.
type Option func(*Dice)

// WithMin overrides the lowest face value.
func WithMin(v float64) Option { return func(d *Dice) { d.min = v } }

// WithMax overrides the highest face value.
func WithMax(v float64) Option { return func(d *Dice) { d.max = v } }

// WithModifiers attaches modifiers; a later modifier replaces an earlier one
// with the same name.
func WithModifiers(mods ...Modifier) Option {
	return func(d *Dice) {
		for _, m := range mods {
			if m != nil {
				d.modifiers[m.Name()] = m
			}
		}
	}
}

// WithModifierMap attaches modifiers from a map. Keys are ignored; each
// modifier is stored under its own name.
func WithModifierMap(mods map[string]Modifier) Option {
	return func(d *Dice) {
		for _, m := range mods {
			if m != nil {
				d.modifiers[m.Name()] = m
			}
		}
	}
}

// WithDescription attaches a description.
func WithDescription(desc *Description) Option { return func(d *Dice) { d.description = desc } }

// NewStandardDice returns qty dice numbered 1 to sides. qty is floored.
func NewStandardDice(sides, qty float64, opts ...Option) (*Dice, error) {
	if sides == 0 {
		return nil, errs.RequiredArgument("sides")
	}
	if math.IsNaN(sides) || math.IsInf(sides, 0) || sides < 0 || sides > engine.MaxSafeInteger {
		return nil, errs.TypeMismatch("sides must be a positive safe number, got %v", sides)
	}
	return newDice(KindStandard, sides, 0, qty, 1, math.Floor(sides), opts)
}

// NewPercentileDice returns qty d% dice.
func NewPercentileDice(qty float64, opts ...Option) (*Dice, error) {
	return newDice(KindPercentile, 100, 0, qty, 1, 100, opts)
}

// NewFudgeDice returns qty Fudge dice with one or two non-blank faces of each
// sign. nonBlanks of 0 means 2.
func NewFudgeDice(nonBlanks int, qty float64, opts ...Option) (*Dice, error) {
	switch nonBlanks {
	case 0:
		nonBlanks = 2
	case 1, 2:
	default:
		return nil, errs.TypeMismatch("fudge dice non-blank faces must be 1 or 2, got %d", nonBlanks)
	}
	return newDice(KindFudge, 3, nonBlanks, qty, -1, 1, opts)
}

func newDice(kind Kind, sides float64, nonBlanks int, qty, lo, hi float64, opts []Option) (*Dice, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return nil, errs.TypeMismatch("qty must be a finite number, got %v", qty)
	}
	q := math.Floor(qty)
	if q < 1 || q > MaxQty {
		return nil, errs.TypeMismatch("qty must be between 1 and %d, got %v", MaxQty, qty)
	}
	d := &Dice{
		kind:      kind,
		sides:     sides,
		nonBlanks: nonBlanks,
		qty:       int(q),
		min:       lo,
		max:       hi,
		modifiers: modifierSet{},
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, bound := range []float64{d.min, d.max} {
		if math.IsNaN(bound) || bound != math.Trunc(bound) || math.Abs(bound) > engine.MaxSafeInteger {
			return nil, errs.TypeMismatch("die bounds must be safe integers, got %v", bound)
		}
	}
	if d.min > d.max {
		return nil, errs.TypeMismatch("die min %v must not exceed max %v", d.min, d.max)
	}
	return d, nil
}

// Kind returns the dice variant.
func (d *Dice) Kind() Kind { return d.kind }

// Name returns the serialized variant name, e.g. "standard-dice".
func (d *Dice) Name() string { return d.kind.Name() }

// Sides returns the numeric face count: sides for standard dice, 100 for
// percentile dice and 3 for Fudge dice.
func (d *Dice) Sides() float64 { return d.sides }

// NonBlanks returns the number of non-blank faces of each sign on a Fudge die.
func (d *Dice) NonBlanks() int { return d.nonBlanks }

// SidesNotation returns the sides as written after "d": "6", "%", "F" or "F.1".
func (d *Dice) SidesNotation() string {
	switch d.kind {
	case KindPercentile:
		return "%"
	case KindFudge:
		if d.nonBlanks == 1 {
			return "F.1"
		}
		return "F"
	}
	return FormatNumber(d.sides)
}

func (d *Dice) sidesJSON() any {
	switch d.kind {
	case KindPercentile:
		return "%"
	case KindFudge:
		return "F." + strconv.Itoa(d.nonBlanks)
	}
	return d.sides
}

// Qty returns the number of dice rolled.
func (d *Dice) Qty() int { return d.qty }

// Min returns the lowest possible face value.
func (d *Dice) Min() float64 { return d.min }

// Max returns the highest possible face value.
func (d *Dice) Max() float64 { return d.max }

// Average returns the mean face value of a single die.
func (d *Dice) Average() float64 { return (d.min + d.max) / 2 }

// Modifiers returns the attached modifiers in execution order.
func (d *Dice) Modifiers() []Modifier { return d.modifiers.sorted() }

// Modifier returns the attached modifier with the given name.
func (d *Dice) Modifier(name string) (Modifier, bool) {
	m, ok := d.modifiers[name]
	return m, ok
}

// SetModifiers replaces every attached modifier.
func (d *Dice) SetModifiers(mods ...Modifier) { d.modifiers = newModifierSet(mods...) }

// AddModifier attaches m, replacing any modifier with the same name.
func (d *Dice) AddModifier(m Modifier) { d.modifiers[m.Name()] = m }

// Description returns the attached description, or nil.
func (d *Dice) Description() *Description { return d.description }

// SetDescription attaches or clears the description.
func (d *Dice) SetDescription(desc *Description) { d.description = desc }

// Notation returns the canonical notation, e.g. "4d6!kh3".
func (d *Dice) Notation() string {
	return strconv.Itoa(d.qty) + "d" + d.SidesNotation() + d.modifiers.notation()
}

func (d *Dice) String() string { return d.Notation() }

// Clone returns a copy whose modifier set can be changed independently.
func (d *Dice) Clone() *Dice {
	c := *d
	c.modifiers = d.modifiers.clone()
	return &c
}

// RollOnce rolls a single die without applying modifiers.
func (d *Dice) RollOnce(gen *engine.Generator) (*RollResult, error) {
	if gen == nil {
		gen = engine.Default()
	}
	if d.kind == KindFudge && d.nonBlanks == 1 {
		n, err := gen.Integer(1, 6)
		if err != nil {
			return nil, err
		}
		switch n {
		case 1:
			return NewRollResult(-1), nil
		case 6:
			return NewRollResult(1), nil
		}
		return NewRollResult(0), nil
	}
	n, err := gen.Integer(int64(d.min), int64(d.max))
	if err != nil {
		return nil, err
	}
	return NewRollResult(float64(n)), nil
}

// Roll rolls every die and applies the modifiers in order.
func (d *Dice) Roll(gen *engine.Generator) (*RollResults, error) {
	if gen == nil {
		gen = engine.Default()
	}
	rolls := make([]*RollResult, 0, d.qty)
	for i := 0; i < d.qty; i++ {
		r, err := d.RollOnce(gen)
		if err != nil {
			return nil, err
		}
		rolls = append(rolls, r)
	}
	results := &RollResults{rolls: rolls}
	if err := d.modifiers.run(results, &Context{Die: d, Generator: gen}); err != nil {
		return nil, err
	}
	return results, nil
}

// MarshalJSON implements json.Marshaler.
func (d *Dice) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":        "dice",
		"name":        d.Name(),
		"notation":    d.Notation(),
		"qty":         d.qty,
		"sides":       d.sidesJSON(),
		"min":         d.min,
		"max":         d.max,
		"average":     d.Average(),
		"modifiers":   map[string]Modifier(d.modifiers),
		"description": d.description,
	})
}
