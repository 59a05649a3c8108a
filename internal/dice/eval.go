package dice

import (
	"fmt"
	"math"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// ValueFunc resolves the numeric value of a term token (dice, group or
// result). It is consulted for every token that is not arithmetic syntax.
type ValueFunc func(Token) (float64, error)

// ResultValue is the default ValueFunc: rolled results evaluate to their
// value; unrolled dice and groups are an error.
func ResultValue(t Token) (float64, error) {
	switch v := t.(type) {
	case *RollResults:
		return v.Value(), nil
	case *ResultGroup:
		return v.Value(), nil
	case Number:
		return float64(v), nil
	}
	return 0, errs.TypeMismatch("cannot evaluate unrolled term %s", Notation([]Token{t}))
}

// Operator binding powers. Unary minus binds tighter than multiplication
// but looser than exponentiation, so -2^2 is -4.
const (
	precAdditive = 1
	precMultiply = 2
	precUnary    = 3
	precPower    = 4
)

func binaryPrec(op Operator) int {
	switch op {
	case "+", "-":
		return precAdditive
	case "*", "/", "%":
		return precMultiply
	case "^":
		return precPower
	}
	return 0
}

// Evaluate computes the arithmetic value of tokens with conventional
// operator precedence. valueOf resolves terms; nil means ResultValue.
func Evaluate(tokens []Token, valueOf ValueFunc) (float64, error) {
	if valueOf == nil {
		valueOf = ResultValue
	}
	e := &evaluator{tokens: tokens, valueOf: valueOf}
	v, err := e.expr(0)
	if err != nil {
		return 0, err
	}
	if e.pos != len(tokens) {
		return 0, e.errorf("unexpected %s", e.describe(e.tokens[e.pos]))
	}
	return v, nil
}

type evaluator struct {
	tokens  []Token
	pos     int
	valueOf ValueFunc
}

func (e *evaluator) peek() Token {
	if e.pos >= len(e.tokens) {
		return nil
	}
	return e.tokens[e.pos]
}

func (e *evaluator) next() Token {
	t := e.peek()
	if t != nil {
		e.pos++
	}
	return t
}

func (e *evaluator) errorf(format string, args ...any) error {
	return errs.TypeMismatch("malformed expression %q: %s", Notation(e.tokens), fmt.Sprintf(format, args...))
}

func (e *evaluator) describe(t Token) string {
	if t == nil {
		return "end of expression"
	}
	return fmt.Sprintf("%q", Notation([]Token{t}))
}

func (e *evaluator) expr(minPrec int) (float64, error) {
	left, err := e.unary()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := e.peek().(Operator)
		if !ok {
			return left, nil
		}
		prec := binaryPrec(op)
		if prec == 0 || prec < minPrec {
			return left, nil
		}
		e.pos++
		// ^ is right-associative: its right operand may contain another ^.
		right, err := e.expr(prec + boolInt(op != "^"))
		if err != nil {
			return 0, err
		}
		left = apply(op, left, right)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (e *evaluator) unary() (float64, error) {
	if op, ok := e.peek().(Operator); ok && (op == "-" || op == "+") {
		e.pos++
		v, err := e.expr(precUnary)
		if err != nil {
			return 0, err
		}
		if op == "-" {
			return -v, nil
		}
		return v, nil
	}
	return e.primary()
}

func (e *evaluator) primary() (float64, error) {
	t := e.next()
	switch v := t.(type) {
	case nil:
		return 0, e.errorf("unexpected end of expression")
	case Number:
		return float64(v), nil
	case Symbol:
		if v != OpenParen {
			return 0, e.errorf("unexpected %s", e.describe(t))
		}
		inner, err := e.expr(0)
		if err != nil {
			return 0, err
		}
		if e.next() != CloseParen {
			return 0, e.errorf("missing closing parenthesis")
		}
		return inner, nil
	case Function:
		return e.call(v)
	case Operator:
		return 0, e.errorf("unexpected operator %q", string(v))
	}
	return e.valueOf(t)
}

func (e *evaluator) call(fn Function) (float64, error) {
	arity, ok := FunctionArity(string(fn))
	if !ok {
		return 0, e.errorf("unknown function %q", string(fn))
	}
	args := make([]float64, 0, arity)
	for {
		v, err := e.expr(0)
		if err != nil {
			return 0, err
		}
		args = append(args, v)
		sep := e.next()
		if sep == CloseParen {
			break
		}
		if sep != Comma {
			return 0, e.errorf("expected \",\" or \")\" in %s, found %s", fn.String(), e.describe(sep))
		}
	}
	if len(args) != arity {
		return 0, e.errorf("%s takes %d argument(s), got %d", string(fn), arity, len(args))
	}
	return callFunction(string(fn), args), nil
}

func apply(op Operator, a, b float64) float64 {
	switch op {
	case "+":
		return a + b
	case "-":
		return a - b
	case "*":
		return a * b
	case "/":
		return a / b
	case "%":
		return math.Mod(a, b)
	case "^":
		return math.Pow(a, b)
	}
	return math.NaN()
}

func callFunction(name string, args []float64) float64 {
	x := args[0]
	switch name {
	case "abs":
		return math.Abs(x)
	case "ceil":
		return math.Ceil(x)
	case "cos":
		return math.Cos(x)
	case "exp":
		return math.Exp(x)
	case "floor":
		return math.Floor(x)
	case "log":
		return math.Log(x)
	case "round":
		// halves round towards +Inf
		return math.Floor(x + 0.5)
	case "sign":
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		}
		return x
	case "sin":
		return math.Sin(x)
	case "sqrt":
		return math.Sqrt(x)
	case "tan":
		return math.Tan(x)
	case "pow":
		return math.Pow(x, args[1])
	case "max":
		return math.Max(x, args[1])
	case "min":
		return math.Min(x, args[1])
	}
	return math.NaN()
}
