package dice

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Token is one element of a roll expression: a dice term, a roll group, a
// rolled result, a number literal or a piece of arithmetic syntax.
//
// The set of tokens is closed; every implementation lives in this package.
type Token interface {
	token()
}

// Number is a numeric literal.
type Number float64

// Operator is a binary or unary arithmetic operator: + - * / ^ %.
type Operator string

// Function is a math function name. It renders as its call opening, "floor(".
type Function string

// Symbol is a grouping or separating character: "(", ")" or ",".
type Symbol string

const (
	OpenParen  Symbol = "("
	CloseParen Symbol = ")"
	Comma      Symbol = ","
)

func (Number) token()       {}
func (Operator) token()     {}
func (Function) token()     {}
func (Symbol) token()       {}
func (*Dice) token()        {}
func (*RollGroup) token()   {}
func (*RollResults) token() {}
func (*ResultGroup) token() {}

// IsOperator reports whether s is an arithmetic operator.
func IsOperator(s string) bool {
	switch s {
	case "+", "-", "*", "/", "^", "%":
		return true
	}
	return false
}

// functionArity maps each supported math function to its argument count.
var functionArity = map[string]int{
	"abs": 1, "ceil": 1, "cos": 1, "exp": 1, "floor": 1, "log": 1,
	"round": 1, "sign": 1, "sin": 1, "sqrt": 1, "tan": 1,
	"pow": 2, "max": 2, "min": 2,
}

// FunctionArity returns the argument count of a supported function.
func FunctionArity(name string) (int, bool) {
	n, ok := functionArity[name]
	return n, ok
}

// String returns the call opening, e.g. "floor(".
func (f Function) String() string { return string(f) + "(" }

// FormatNumber renders n the way it appears in notation and output: integers
// without a fraction, very large or tiny magnitudes in exponent form.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || (abs != 0 && abs < 1e-6) {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// Notation renders tokens back into notation text.
func Notation(tokens []Token) string {
	return render(tokens, false)
}

// Output renders rolled tokens for display, e.g. "[3, 5]+4".
func Output(tokens []Token) string {
	return render(tokens, true)
}

func render(tokens []Token, output bool) string {
	var b strings.Builder
	for _, t := range tokens {
		switch v := t.(type) {
		case Number:
			b.WriteString(FormatNumber(float64(v)))
		case Operator:
			b.WriteString(string(v))
		case Function:
			b.WriteString(v.String())
		case Symbol:
			if v == Comma && output {
				b.WriteString(", ")
			} else {
				b.WriteString(string(v))
			}
		case *Dice:
			b.WriteString(v.Notation())
		case *RollGroup:
			b.WriteString(v.Notation())
		case *RollResults:
			b.WriteString(v.String())
		case *ResultGroup:
			b.WriteString(v.String())
		}
	}
	return b.String()
}

// tokenJSON returns the serializable form of t.
func tokenJSON(t Token) any {
	switch v := t.(type) {
	case Number:
		return float64(v)
	case Operator:
		return string(v)
	case Function:
		return v.String()
	case Symbol:
		return string(v)
	case json.Marshaler:
		return v
	}
	return nil
}

// TokensJSON returns the serializable form of tokens.
func TokensJSON(tokens []Token) []any {
	out := make([]any, len(tokens))
	for i, t := range tokens {
		out[i] = tokenJSON(t)
	}
	return out
}

// CloneTokens deep-copies dice and roll groups so the copy can be modified
// without affecting the original. Results and literals are shared.
func CloneTokens(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		switch v := t.(type) {
		case *Dice:
			out[i] = v.Clone()
		case *RollGroup:
			out[i] = v.Clone()
		default:
			out[i] = t
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case Number:
		return float64(n), true
	}
	return 0, false
}

// jsonNumber returns n, or nil when n cannot be represented in JSON.
func jsonNumber(n float64) any {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return n
}

// JSONNumber is jsonNumber for callers outside the package.
func JSONNumber(n float64) any { return jsonNumber(n) }
