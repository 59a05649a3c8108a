package dice

import (
	"fmt"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// TokensFromObjects rebuilds rolled tokens from their decoded JSON (or YAML)
// form, as produced by TokensJSON.
func TokensFromObjects(items []any) ([]Token, error) {
	out := make([]Token, 0, len(items))
	for i, item := range items {
		t, err := TokenFromObject(item)
		if err != nil {
			return nil, fmt.Errorf("roll %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// TokenFromObject rebuilds one rolled token. Numbers become literals,
// strings become operators, functions or symbols, and objects are decoded by
// their "type" field.
func TokenFromObject(v any) (Token, error) {
	if n, ok := toFloat(v); ok {
		return Number(n), nil
	}
	switch t := v.(type) {
	case string:
		return stringToken(t)
	case map[string]any:
		switch t["type"] {
		case "roll-results":
			return rollResultsFromObject(t)
		case "result-group":
			return resultGroupFromObject(t)
		}
		return nil, errs.DataFormat("unsupported roll type %v", t["type"])
	case Token:
		return t, nil
	}
	return nil, errs.DataFormat("unsupported roll value %T", v)
}

func stringToken(s string) (Token, error) {
	switch {
	case IsOperator(s):
		return Operator(s), nil
	case s == string(OpenParen), s == string(CloseParen), s == string(Comma):
		return Symbol(s), nil
	case strings.HasSuffix(s, "("):
		name := strings.TrimSuffix(s, "(")
		if _, ok := FunctionArity(name); ok {
			return Function(name), nil
		}
	}
	return nil, errs.DataFormat("unknown token %q", s)
}

// RollResultFromObject rebuilds a single die result.
func RollResultFromObject(obj map[string]any) (*RollResult, error) {
	if obj["type"] != "result" {
		return nil, errs.DataFormat("expected result, got type %v", obj["type"])
	}
	value, ok := toFloat(obj["value"])
	if !ok {
		return nil, errs.DataFormat("result value must be numeric, got %v", obj["value"])
	}
	r := NewRollResult(value)
	if initial, ok := toFloat(obj["initialValue"]); ok {
		r.initialValue = initial
	}
	if calc, ok := toFloat(obj["calculationValue"]); ok && calc != value {
		r.SetCalculationValue(calc)
	}
	if use, ok := obj["useInTotal"].(bool); ok {
		r.useInTotal = use
	}
	names, err := flagNames(obj["modifiers"])
	if err != nil {
		return nil, err
	}
	for _, f := range names {
		r.AddFlag(f)
	}
	return r, nil
}

func rollResultsFromObject(obj map[string]any) (*RollResults, error) {
	items, err := list(obj["rolls"], "rolls")
	if err != nil {
		return nil, err
	}
	rolls := make([]*RollResult, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, errs.DataFormat("roll result %d must be an object, got %T", i, item)
		}
		r, err := RollResultFromObject(m)
		if err != nil {
			return nil, err
		}
		rolls = append(rolls, r)
	}
	return &RollResults{rolls: rolls}, nil
}

func resultGroupFromObject(obj map[string]any) (*ResultGroup, error) {
	items, err := list(obj["rolls"], "rolls")
	if err != nil {
		return nil, err
	}
	tokens, err := TokensFromObjects(items)
	if err != nil {
		return nil, err
	}
	isRollGroup, _ := obj["isRollGroup"].(bool)
	g := NewResultGroup(tokens, isRollGroup)
	if calc, ok := toFloat(obj["calculationValue"]); ok && calc != g.Value() {
		g.SetCalculationValue(calc)
	}
	if use, ok := obj["useInTotal"].(bool); ok {
		g.useInTotal = use
	}
	names, err := flagNames(obj["modifiers"])
	if err != nil {
		return nil, err
	}
	for _, f := range names {
		g.AddFlag(f)
	}
	return g, nil
}

func list(v any, field string) ([]any, error) {
	switch l := v.(type) {
	case []any:
		return l, nil
	case nil:
		return nil, nil
	}
	return nil, errs.DataFormat("%s must be a list, got %T", field, v)
}

func flagNames(v any) ([]string, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return l, nil
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, ok := item.(string)
			if !ok {
				return nil, errs.DataFormat("modifier flag must be a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errs.DataFormat("modifiers must be a list of names, got %T", v)
}
