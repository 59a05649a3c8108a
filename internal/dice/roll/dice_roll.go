package roll

import (
	"encoding/json"
	"math"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// preciseLimit is the magnitude below which totals are rounded to two
// decimal places. Larger totals are left as computed.
const preciseLimit = 1e15

// DiceRoll is one notation, parsed and rolled.
//
// Invariant: Total() is the arithmetic value of Rolls() with every rolled term
// replaced by its value.
type DiceRoll struct {
	notation  string
	tokens    []dice.Token
	rolls     []dice.Token
	total     float64
	generator *engine.Generator
}

// New parses notation and rolls it.
//
// Precondition: notation is non-empty.
// Postcondition: returns a rolled DiceRoll, or a parse, range or die action error.
func New(notation string, opts ...Option) (*DiceRoll, error) {
	s := newSettings(opts)
	if notation == "" {
		return nil, errs.RequiredArgument("notation")
	}
	tokens, err := s.parse(notation)
	if err != nil {
		return nil, err
	}
	r := &DiceRoll{notation: notation, tokens: tokens, generator: s.generator}
	if err := r.Roll(); err != nil {
		return nil, err
	}
	return r, nil
}

// Roll re-rolls every dice term and roll group, keeping the parsed structure.
func (r *DiceRoll) Roll() error {
	rolls, err := dice.RollTokens(r.tokens, r.generator)
	if err != nil {
		return err
	}
	total, err := evaluate(rolls, nil)
	if err != nil {
		return err
	}
	r.rolls, r.total = rolls, total
	return nil
}

// Notation returns the notation as written.
func (r *DiceRoll) Notation() string { return r.notation }

// Tokens returns a copy of the parsed, unrolled expression.
func (r *DiceRoll) Tokens() []dice.Token { return dice.CloneTokens(r.tokens) }

// Rolls returns the rolled expression: results in place of dice terms and
// roll groups, other tokens unchanged.
func (r *DiceRoll) Rolls() []dice.Token { return append([]dice.Token(nil), r.rolls...) }

// Total returns the evaluated total.
func (r *DiceRoll) Total() float64 { return r.total }

// MinTotal returns the total with every die at its lowest face. Modifiers are
// ignored.
func (r *DiceRoll) MinTotal() float64 { return r.bound(func(d *dice.Dice) float64 { return d.Min() }) }

// MaxTotal returns the total with every die at its highest face. Modifiers
// are ignored.
func (r *DiceRoll) MaxTotal() float64 { return r.bound(func(d *dice.Dice) float64 { return d.Max() }) }

// AverageTotal returns the total with every die at its average. Modifiers
// are ignored.
func (r *DiceRoll) AverageTotal() float64 {
	return r.bound(func(d *dice.Dice) float64 { return d.Average() })
}

func (r *DiceRoll) bound(face func(*dice.Dice) float64) float64 {
	v, err := evaluate(r.tokens, boundValue(face))
	if err != nil {
		return math.NaN()
	}
	return v
}

func boundValue(face func(*dice.Dice) float64) dice.ValueFunc {
	var valueOf dice.ValueFunc
	valueOf = func(t dice.Token) (float64, error) {
		switch v := t.(type) {
		case *dice.Dice:
			return face(v) * float64(v.Qty()), nil
		case *dice.RollGroup:
			var sum float64
			for _, expr := range v.Expressions() {
				n, err := dice.Evaluate(expr, valueOf)
				if err != nil {
					return 0, err
				}
				sum += n
			}
			return sum, nil
		}
		return dice.ResultValue(t)
	}
	return valueOf
}

// Output renders the roll as "notation: rolls = total", e.g.
// "2d6+4: [3, 5]+4 = 12".
func (r *DiceRoll) Output() string {
	return r.notation + ": " + dice.Output(r.rolls) + " = " + dice.FormatNumber(r.total)
}

func (r *DiceRoll) String() string { return r.Output() }

// MarshalJSON implements json.Marshaler.
func (r *DiceRoll) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"type":         "dice-roll",
		"notation":     r.notation,
		"rolls":        dice.TokensJSON(r.rolls),
		"total":        dice.JSONNumber(r.total),
		"minTotal":     dice.JSONNumber(r.MinTotal()),
		"maxTotal":     dice.JSONNumber(r.MaxTotal()),
		"averageTotal": dice.JSONNumber(r.AverageTotal()),
		"output":       r.Output(),
	})
}

// Export serializes the roll. FormatObject yields a map[string]any; the other
// formats yield a string.
func (r *DiceRoll) Export(format Format) (any, error) {
	return export(r, format)
}

// Import rebuilds a DiceRoll from exported data: a JSON, base64 or YAML
// string or byte slice, a map[string]any, or another *DiceRoll. The notation
// is parsed again so the result can be re-rolled; the total is recomputed
// from the imported rolls. Data without rolls is rolled afresh.
func Import(data any, opts ...Option) (*DiceRoll, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return fromObject(obj, newSettings(opts))
}

func fromObject(obj map[string]any, s settings) (*DiceRoll, error) {
	notation, ok := obj["notation"].(string)
	if !ok || notation == "" {
		return nil, errs.DataFormat("roll data has no notation")
	}
	tokens, err := s.parse(notation)
	if err != nil {
		return nil, err
	}
	r := &DiceRoll{notation: notation, tokens: tokens, generator: s.generator}

	raw, present := obj["rolls"]
	if !present || raw == nil {
		if err := r.Roll(); err != nil {
			return nil, err
		}
		return r, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errs.DataFormat("rolls must be a list, got %T", raw)
	}
	rolls, err := dice.TokensFromObjects(items)
	if err != nil {
		return nil, err
	}
	total, err := evaluate(rolls, nil)
	if err != nil {
		return nil, errs.DataFormat("rolls do not form an expression: %v", err)
	}
	r.rolls, r.total = rolls, total
	return r, nil
}

// evaluate computes the total of tokens and rounds it to two decimal places
// while it is small enough to do so exactly.
func evaluate(tokens []dice.Token, valueOf dice.ValueFunc) (float64, error) {
	v, err := dice.Evaluate(tokens, valueOf)
	if err != nil {
		return 0, err
	}
	return round2(v), nil
}

func round2(v float64) float64 {
	if math.Abs(v) >= preciseLimit || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}
