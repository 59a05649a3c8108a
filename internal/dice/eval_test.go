package dice_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

type (
	n  = dice.Number
	op = dice.Operator
	fn = dice.Function
)

func TestEvaluate_Precedence(t *testing.T) {
	cases := []struct {
		name   string
		tokens []dice.Token
		want   float64
	}{
		{"multiply before add", []dice.Token{n(2), op("+"), n(3), op("*"), n(4)}, 14},
		{"chained multiply after add", []dice.Token{n(1), op("+"), n(2), op("*"), n(3), op("*"), n(4)}, 25},
		{"left associative minus", []dice.Token{n(10), op("-"), n(3), op("-"), n(2)}, 5},
		{"right associative power", []dice.Token{n(2), op("^"), n(3), op("^"), n(2)}, 512},
		{"unary minus below power", []dice.Token{op("-"), n(2), op("^"), n(2)}, -4},
		{"unary minus above multiply", []dice.Token{op("-"), n(2), op("*"), n(3)}, -6},
		{"modulo", []dice.Token{n(10), op("%"), n(4)}, 2},
		{"parentheses", []dice.Token{dice.OpenParen, n(2), op("+"), n(3), dice.CloseParen, op("*"), n(4)}, 20},
		{"division", []dice.Token{n(7), op("/"), n(2)}, 3.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := dice.Evaluate(tc.tokens, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluate_Functions(t *testing.T) {
	call := func(name string, args ...float64) []dice.Token {
		out := []dice.Token{fn(name)}
		for i, a := range args {
			if i > 0 {
				out = append(out, dice.Comma)
			}
			out = append(out, n(a))
		}
		return append(out, dice.CloseParen)
	}
	cases := []struct {
		tokens []dice.Token
		want   float64
	}{
		{call("abs", -3), 3},
		{call("ceil", 2.1), 3},
		{call("floor", 2.9), 2},
		{call("round", 2.5), 3},
		{call("round", -2.5), -2},
		{call("sign", -7), -1},
		{call("sign", 0), 0},
		{call("sqrt", 16), 4},
		{call("pow", 2, 10), 1024},
		{call("max", 1, 5), 5},
		{call("min", 1, 5), 1},
		{call("exp", 0), 1},
		{call("log", 1), 0},
	}
	for _, tc := range cases {
		t.Run(dice.Notation(tc.tokens), func(t *testing.T) {
			got, err := dice.Evaluate(tc.tokens, nil)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	cases := map[string][]dice.Token{
		"wrong arity":      {fn("pow"), n(2), dice.CloseParen},
		"unclosed paren":   {dice.OpenParen, n(1), op("+"), n(2)},
		"dangling op":      {n(1), op("+")},
		"adjacent numbers": {n(1), n(2)},
		"unrolled dice":    {mustDice(6, 1)},
		"empty":            {},
	}
	for name, tokens := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := dice.Evaluate(tokens, nil)
			assert.ErrorIs(t, err, errs.ErrTypeMismatch)
		})
	}
}

func TestEvaluate_ValueFunc(t *testing.T) {
	d := mustDice(6, 2)
	got, err := dice.Evaluate([]dice.Token{d, op("+"), n(1)}, func(t dice.Token) (float64, error) {
		return t.(*dice.Dice).Max() * float64(t.(*dice.Dice).Qty()), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 13.0, got)
}

func TestEvaluate_LargeMagnitudes(t *testing.T) {
	got, err := dice.Evaluate([]dice.Token{n(99), op("^"), n(99)}, nil)
	require.NoError(t, err)
	assert.Equal(t, math.Pow(99, 99), got)
	assert.Contains(t, dice.FormatNumber(got), "e+197")
}

func TestRollTokens_TotalConsistency(t *testing.T) {
	gen := engine.NewGenerator(engine.NewMT19937(99))
	tokens := []dice.Token{mustDice(6, 3), op("*"), n(2), op("-"), mustDice(4, 1)}
	rolled, err := dice.RollTokens(tokens, gen)
	require.NoError(t, err)
	a := rolled[0].(*dice.RollResults)
	b := rolled[4].(*dice.RollResults)
	got, err := dice.Evaluate(rolled, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Value()*2-b.Value(), got)
}
