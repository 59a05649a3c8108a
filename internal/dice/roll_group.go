package dice

import (
	"encoding/json"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// RollGroup is a bracketed set of sub-expressions rolled together, e.g.
// {4d6+2d8, 3d20}k1.
type RollGroup struct {
	expressions [][]Token
	modifiers   modifierSet
	description *Description
}

// NewRollGroup returns a group over expressions. Each expression must be
// non-empty.
func NewRollGroup(expressions [][]Token, mods ...Modifier) (*RollGroup, error) {
	if len(expressions) == 0 {
		return nil, errs.RequiredArgument("expressions")
	}
	exprs := make([][]Token, len(expressions))
	for i, e := range expressions {
		if len(e) == 0 {
			return nil, errs.TypeMismatch("roll group expression %d is empty", i)
		}
		exprs[i] = append([]Token(nil), e...)
	}
	return &RollGroup{expressions: exprs, modifiers: newModifierSet(mods...)}, nil
}

// Expressions returns the sub-expressions.
func (g *RollGroup) Expressions() [][]Token {
	out := make([][]Token, len(g.expressions))
	for i, e := range g.expressions {
		out[i] = append([]Token(nil), e...)
	}
	return out
}

// Modifiers returns the attached modifiers in execution order.
func (g *RollGroup) Modifiers() []Modifier { return g.modifiers.sorted() }

// SetModifiers replaces every attached modifier.
func (g *RollGroup) SetModifiers(mods ...Modifier) { g.modifiers = newModifierSet(mods...) }

// AddModifier attaches m, replacing any modifier with the same name.
func (g *RollGroup) AddModifier(m Modifier) { g.modifiers[m.Name()] = m }

// Description returns the attached description, or nil.
func (g *RollGroup) Description() *Description { return g.description }

// SetDescription attaches or clears the description.
func (g *RollGroup) SetDescription(desc *Description) { g.description = desc }

// Notation returns the canonical notation.
func (g *RollGroup) Notation() string {
	parts := make([]string, len(g.expressions))
	for i, e := range g.expressions {
		parts[i] = Notation(e)
	}
	return "{" + strings.Join(parts, ", ") + "}" + g.modifiers.notation()
}

func (g *RollGroup) String() string { return g.Notation() }

// Clone returns a deep copy.
func (g *RollGroup) Clone() *RollGroup {
	exprs := make([][]Token, len(g.expressions))
	for i, e := range g.expressions {
		exprs[i] = CloneTokens(e)
	}
	return &RollGroup{expressions: exprs, modifiers: g.modifiers.clone(), description: g.description}
}

// Roll rolls every sub-expression and applies the group modifiers.
func (g *RollGroup) Roll(gen *engine.Generator) (*ResultGroup, error) {
	if gen == nil {
		gen = engine.Default()
	}
	subs := make([]Token, len(g.expressions))
	for i, e := range g.expressions {
		rolled, err := RollTokens(e, gen)
		if err != nil {
			return nil, err
		}
		subs[i] = NewResultGroup(rolled, false)
	}
	group := NewResultGroup(subs, true)
	if err := g.modifiers.run(group, &Context{Generator: gen}); err != nil {
		return nil, err
	}
	return group, nil
}

// RollTokens replaces every dice term and roll group in tokens with its
// rolled result. Other tokens are copied unchanged.
func RollTokens(tokens []Token, gen *engine.Generator) ([]Token, error) {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		switch v := t.(type) {
		case *Dice:
			rs, err := v.Roll(gen)
			if err != nil {
				return nil, err
			}
			out[i] = rs
		case *RollGroup:
			rg, err := v.Roll(gen)
			if err != nil {
				return nil, err
			}
			out[i] = rg
		default:
			out[i] = t
		}
	}
	return out, nil
}

// MarshalJSON implements json.Marshaler.
func (g *RollGroup) MarshalJSON() ([]byte, error) {
	exprs := make([][]any, len(g.expressions))
	for i, e := range g.expressions {
		exprs[i] = TokensJSON(e)
	}
	return json.Marshal(map[string]any{
		"type":        "group",
		"name":        "group",
		"notation":    g.Notation(),
		"expressions": exprs,
		"modifiers":   map[string]Modifier(g.modifiers),
		"description": g.description,
	})
}
