// Package parser turns dice notation text into the flat token list that
// dice.RollTokens and dice.Evaluate operate on.
package parser

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// Parse parses notation into tokens: dice terms, roll groups, numbers,
// operators, function openings, commas and closing parentheses.
//
// Precondition: notation is non-empty.
// Postcondition: returns tokens in source order, or an error wrapping
// errs.ErrRequiredArgument, errs.ErrNotationSyntax (as *errs.SyntaxError) or
// errs.ErrTypeMismatch when a term is out of range.
func Parse(notation string) ([]dice.Token, error) {
	if strings.TrimSpace(notation) == "" {
		return nil, errs.RequiredArgument("notation")
	}
	p := &parser{src: notation}
	tokens, err := p.expression(0)
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.fail("unexpected input", "operator", "end of input")
	}
	return tokens, nil
}

// ParseAny is Parse for loosely typed input such as script arguments.
func ParseAny(v any) ([]dice.Token, error) {
	switch s := v.(type) {
	case nil:
		return nil, errs.RequiredArgument("notation")
	case string:
		return Parse(s)
	case fmt.Stringer:
		return Parse(s.String())
	}
	return nil, errs.TypeMismatch("notation must be a string, got %T", v)
}

// compareOperators is the match order for compare points in notation; longer
// operators come first. "!" is not accepted because it starts an explode.
var compareOperators = []string{"==", "=", "!=", "<>", "<=", ">=", "<", ">"}

type parser struct {
	src string
	pos int
	// last is the most recently completed dice term or roll group, the
	// target of a following description.
	last describable
}

type describable interface {
	SetDescription(*dice.Description)
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) hasPrefix(s string) bool { return strings.HasPrefix(p.src[p.pos:], s) }

// accept consumes s when the input continues with it.
func (p *parser) accept(s string) bool {
	if p.hasPrefix(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// expression parses operands joined by binary operators until the input
// ends or one of the closing characters in stop is reached.
func (p *parser) expression(depth int, stop ...byte) ([]dice.Token, error) {
	var tokens []dice.Token
	for {
		p.skipSpace()
		for p.peek() == '-' {
			tokens = append(tokens, dice.Operator("-"))
			p.pos++
			p.skipSpace()
		}
		operand, err := p.operand(depth)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, operand...)

		p.skipSpace()
		if err := p.description(); err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.eof() || slices.Contains(stop, p.peek()) {
			return tokens, nil
		}
		c := string(p.peek())
		if !dice.IsOperator(c) {
			expected := []string{"operator"}
			for _, s := range stop {
				expected = append(expected, strconv.Quote(string(s)))
			}
			if depth == 0 {
				expected = append(expected, "end of input")
			}
			return nil, p.fail("unexpected input", expected...)
		}
		tokens = append(tokens, dice.Operator(c))
		p.pos++
	}
}

func (p *parser) operand(depth int) ([]dice.Token, error) {
	switch c := p.peek(); {
	case c == '(':
		return p.parenthesized(depth)
	case c == '{':
		return p.group(depth)
	case c == 'd':
		return p.die(nil, p.pos)
	case isDigit(c):
		return p.numberOrDie()
	case isLetter(c):
		return p.function(depth)
	}
	return nil, p.fail("expected a term", "number", "dice", `"("`, `"{"`, "function")
}

// parenthesized parses "(expr)", which is either a grouping or, when a "d"
// follows, the quantity of a dice term.
func (p *parser) parenthesized(depth int) ([]dice.Token, error) {
	start := p.pos
	p.pos++
	inner, err := p.expression(depth+1, ')')
	if err != nil {
		return nil, err
	}
	if !p.accept(")") {
		return nil, p.fail("unclosed parenthesis", `")"`)
	}
	if p.peek() == 'd' && p.startsSides(p.pos+1) {
		return p.die(inner, start)
	}
	out := make([]dice.Token, 0, len(inner)+2)
	out = append(out, dice.OpenParen)
	out = append(out, inner...)
	return append(out, dice.CloseParen), nil
}

func (p *parser) numberOrDie() ([]dice.Token, error) {
	start := p.pos
	text := p.digits()
	if p.peek() == 'd' && p.startsSides(p.pos+1) {
		if text[0] == '0' {
			return nil, p.failAt(start, "dice quantity must not start with zero", "1-9")
		}
		qty, _ := strconv.ParseFloat(text, 64)
		return p.die([]dice.Token{dice.Number(qty)}, start)
	}
	if p.peek() == '.' {
		p.pos++
		frac := p.digits()
		if frac == "" {
			return nil, p.fail("expected digits after decimal point", "digit")
		}
		text += "." + frac
	}
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.failAt(start, fmt.Sprintf("invalid number %q", text), "number")
	}
	return []dice.Token{dice.Number(n)}, nil
}

// startsSides reports whether a dice sides term begins at i.
func (p *parser) startsSides(i int) bool {
	if i >= len(p.src) {
		return false
	}
	c := p.src[i]
	return isDigit(c) || c == '%' || c == 'F' || c == '('
}

// die parses "d" sides modifiers. qty holds the arithmetic tokens of the
// quantity, or nil for an implied quantity of 1.
func (p *parser) die(qtyTokens []dice.Token, start int) ([]dice.Token, error) {
	qty := 1.0
	if qtyTokens != nil {
		v, err := p.arithmetic(qtyTokens, start, "dice quantity")
		if err != nil {
			return nil, err
		}
		qty = v
	}
	if !p.accept("d") {
		return nil, p.fail("expected dice", `"d"`)
	}

	var d *dice.Dice
	var err error
	switch c := p.peek(); {
	case c == '%':
		p.pos++
		d, err = dice.NewPercentileDice(qty)
	case c == 'F':
		p.pos++
		nonBlanks := 2
		if p.accept(".") {
			switch p.peek() {
			case '1':
				nonBlanks = 1
			case '2':
			default:
				return nil, p.fail("invalid fudge dice variant", `"1"`, `"2"`)
			}
			p.pos++
		}
		d, err = dice.NewFudgeDice(nonBlanks, qty)
	case c == '(':
		sidesStart := p.pos
		p.pos++
		inner, perr := p.expression(1, ')')
		if perr != nil {
			return nil, perr
		}
		if !p.accept(")") {
			return nil, p.fail("unclosed parenthesis", `")"`)
		}
		sides, perr := p.arithmetic(inner, sidesStart, "dice sides")
		if perr != nil {
			return nil, perr
		}
		d, err = dice.NewStandardDice(sides, qty)
	case isDigit(c):
		if c == '0' {
			return nil, p.fail("dice sides must not start with zero", "1-9")
		}
		sides, _ := strconv.ParseFloat(p.digits(), 64)
		d, err = dice.NewStandardDice(sides, qty)
	default:
		return nil, p.fail("expected dice sides", "number", `"%"`, `"F"`, `"("`)
	}
	if err != nil {
		return nil, err
	}
	if err := p.dieModifiers(d); err != nil {
		return nil, err
	}
	p.last = d
	return []dice.Token{d}, nil
}

// arithmetic evaluates a parenthesized quantity or sides expression and
// floors the result.
func (p *parser) arithmetic(tokens []dice.Token, start int, what string) (float64, error) {
	for _, t := range tokens {
		switch t.(type) {
		case *dice.Dice, *dice.RollGroup:
			return 0, p.failAt(start, what+" must not contain dice", "number")
		}
	}
	v, err := dice.Evaluate(tokens, nil)
	if err != nil {
		return 0, err
	}
	return math.Floor(v), nil
}

func (p *parser) dieModifiers(d *dice.Dice) error {
	for {
		m, err := p.dieModifier(d)
		if err != nil {
			return err
		}
		if m == nil {
			return nil
		}
		d.AddModifier(m)
	}
}

func (p *parser) dieModifier(d *dice.Dice) (dice.Modifier, error) {
	switch {
	case p.hasPrefix("!"):
		return p.explode()
	case p.accept("cs"):
		cp, err := p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		return dice.NewCriticalSuccessModifier(cp), nil
	case p.accept("cf"):
		cp, err := p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		return dice.NewCriticalFailureModifier(cp), nil
	case p.accept("min"):
		v, err := p.signedNumber("min")
		if err != nil {
			return nil, err
		}
		return dice.NewMinModifier(v)
	case p.accept("max"):
		v, err := p.signedNumber("max")
		if err != nil {
			return nil, err
		}
		return dice.NewMaxModifier(v)
	case p.accept("mul"):
		v, err := p.signedNumber("multiply factor")
		if err != nil {
			return nil, err
		}
		cp, err := p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		return dice.NewMultiplyModifier(v, cp)
	case p.accept("r"):
		once := p.accept("o")
		cp, err := p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		return dice.NewReRollModifier(cp, once), nil
	case p.accept("u"):
		once := p.accept("o")
		cp, err := p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		return dice.NewUniqueModifier(cp, once), nil
	}
	return p.sharedModifier()
}

// sharedModifier parses the modifiers that dice terms and roll groups both
// accept: keep, drop, sort and target.
func (p *parser) sharedModifier() (dice.Modifier, error) {
	switch {
	case p.accept("k"):
		end, qty, err := p.endAndQty("keep")
		if err != nil {
			return nil, err
		}
		return dice.NewKeepModifier(end, qty)
	case p.hasPrefix("d") && p.startsDrop():
		p.pos++
		end, qty, err := p.endAndQty("drop")
		if err != nil {
			return nil, err
		}
		return dice.NewDropModifier(end, qty)
	case p.accept("s"):
		dir := dice.Ascending
		switch p.peek() {
		case 'a':
			p.pos++
		case 'd':
			p.pos++
			dir = dice.Descending
		}
		return dice.NewSortingModifier(dir)
	case p.hasPrefix("f"):
		return nil, p.fail("failure compare point requires a success compare point first", "compare point")
	}
	success, err := p.optionalComparePoint()
	if err != nil || success == nil {
		return nil, err
	}
	var failure *dice.ComparePoint
	if p.accept("f") {
		failure, err = p.optionalComparePoint()
		if err != nil {
			return nil, err
		}
		if failure == nil {
			return nil, p.fail("expected failure compare point", "compare point")
		}
	}
	return dice.NewTargetModifier(success, failure)
}

// startsDrop reports whether the "d" at the cursor begins a drop modifier
// rather than running into the next term.
func (p *parser) startsDrop() bool {
	i := p.pos + 1
	if i < len(p.src) && (p.src[i] == 'h' || p.src[i] == 'l') {
		i++
	}
	return i < len(p.src) && isDigit(p.src[i])
}

func (p *parser) endAndQty(what string) (dice.End, int, error) {
	var end dice.End
	switch p.peek() {
	case 'h':
		end = dice.EndHighest
		p.pos++
	case 'l':
		end = dice.EndLowest
		p.pos++
	}
	start := p.pos
	text := p.digits()
	if text == "" {
		return "", 0, p.fail("expected "+what+" quantity", "digit")
	}
	if text[0] == '0' {
		return "", 0, p.failAt(start, what+" quantity must be at least 1", "1-9")
	}
	qty, err := strconv.Atoi(text)
	if err != nil {
		return "", 0, p.failAt(start, fmt.Sprintf("invalid %s quantity %q", what, text), "number")
	}
	return end, qty, nil
}

func (p *parser) explode() (dice.Modifier, error) {
	p.accept("!")
	compound := p.accept("!")
	penetrate := p.accept("p")
	limit := 0
	if text := p.digits(); text != "" {
		n, err := strconv.Atoi(text)
		if err != nil {
			return nil, p.fail(fmt.Sprintf("invalid explode limit %q", text), "number")
		}
		limit = n
	}
	cp, err := p.optionalComparePoint()
	if err != nil {
		return nil, err
	}
	return dice.NewExplodeModifier(cp, compound, penetrate, limit)
}

// optionalComparePoint parses an operator and number, or returns nil when
// the input does not continue with a compare operator.
func (p *parser) optionalComparePoint() (*dice.ComparePoint, error) {
	for _, op := range compareOperators {
		if p.accept(op) {
			v, err := p.signedNumber("compare point")
			if err != nil {
				return nil, err
			}
			return dice.NewComparePoint(op, v)
		}
	}
	return nil, nil
}

func (p *parser) signedNumber(what string) (float64, error) {
	start := p.pos
	neg := p.accept("-")
	text := p.digits()
	if text == "" {
		return 0, p.fail("expected "+what+" value", "number")
	}
	if p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1]) {
		p.pos++
		text += "." + p.digits()
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, p.failAt(start, fmt.Sprintf("invalid %s value %q", what, text), "number")
	}
	if neg {
		v = -v
	}
	return v, nil
}

// group parses "{expr, expr...}" followed by group modifiers.
func (p *parser) group(depth int) ([]dice.Token, error) {
	p.pos++
	var exprs [][]dice.Token
	for {
		p.skipSpace()
		if p.peek() == '}' {
			if len(exprs) == 0 {
				return nil, p.fail("empty roll group", "expression")
			}
			return nil, p.fail("expected expression after comma", "expression")
		}
		expr, err := p.expression(depth+1, ',', '}')
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if p.accept("}") {
			break
		}
		if !p.accept(",") {
			return nil, p.fail("unclosed roll group", `","`, `"}"`)
		}
	}
	g, err := dice.NewRollGroup(exprs)
	if err != nil {
		return nil, err
	}
	for {
		m, err := p.sharedModifier()
		if err != nil {
			return nil, err
		}
		if m == nil {
			break
		}
		g.AddModifier(m)
	}
	p.last = g
	return []dice.Token{g}, nil
}

// function parses "name(arg, ...)" and checks the argument count.
func (p *parser) function(depth int) ([]dice.Token, error) {
	start := p.pos
	for isLetter(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]
	arity, ok := dice.FunctionArity(name)
	if !ok {
		return nil, p.failAt(start, fmt.Sprintf("unknown function %q", name), "function")
	}
	if !p.accept("(") {
		return nil, p.fail(fmt.Sprintf("expected \"(\" after %s", name), `"("`)
	}
	out := []dice.Token{dice.Function(name)}
	args := 0
	for {
		arg, err := p.expression(depth+1, ',', ')')
		if err != nil {
			return nil, err
		}
		out = append(out, arg...)
		args++
		if p.accept(")") {
			break
		}
		if !p.accept(",") {
			return nil, p.fail("unclosed function call", `","`, `")"`)
		}
		out = append(out, dice.Comma)
	}
	if args != arity {
		return nil, p.failAt(start, fmt.Sprintf("%s expects %d argument(s), got %d", name, arity, args), "argument")
	}
	return append(out, dice.CloseParen), nil
}

// description parses a trailing "# text", "// text", "/* text */" or
// "[text]" and attaches it to the last dice term or roll group.
func (p *parser) description() error {
	start := p.pos
	var text string
	var typ dice.DescriptionType
	switch {
	case p.accept("#"), p.accept("//"):
		end := strings.IndexAny(p.src[p.pos:], "\r\n")
		if end < 0 {
			end = len(p.src) - p.pos
		}
		text, typ = p.src[p.pos:p.pos+end], dice.DescriptionInline
		p.pos += end
	case p.accept("/*"):
		end := strings.Index(p.src[p.pos:], "*/")
		if end < 0 {
			return p.failAt(len(p.src), "unclosed description", `"*/"`)
		}
		text, typ = p.src[p.pos:p.pos+end], dice.DescriptionMultiline
		p.pos += end + 2
	case p.accept("["):
		end := strings.IndexByte(p.src[p.pos:], ']')
		if end < 0 {
			return p.failAt(len(p.src), "unclosed description", `"]"`)
		}
		text, typ = p.src[p.pos:p.pos+end], dice.DescriptionMultiline
		p.pos += end + 1
	default:
		return nil
	}
	if p.last == nil {
		return p.failAt(start, "description must follow dice or a roll group", "dice", "roll group")
	}
	desc, err := dice.NewDescription(text, typ)
	if errors.Is(err, errs.ErrRequiredArgument) {
		return p.failAt(start, "description text must not be empty", "text")
	}
	if err != nil {
		return err
	}
	p.last.SetDescription(desc)
	return nil
}

func (p *parser) digits() string {
	start := p.pos
	for isDigit(p.peek()) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) fail(message string, expected ...string) error {
	return p.failAt(p.pos, message, expected...)
}

func (p *parser) failAt(offset int, message string, expected ...string) error {
	found := ""
	if offset < len(p.src) {
		found = p.src[offset : offset+1]
	}
	return &errs.SyntaxError{
		Message:  message,
		Expected: expected,
		Found:    found,
		Location: errs.Location{Start: p.position(offset), End: p.position(offset + len(found))},
	}
}

func (p *parser) position(offset int) errs.Position {
	before := p.src[:min(offset, len(p.src))]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndexByte(before, '\n')
	return errs.Position{Offset: offset, Line: line, Column: col}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return c >= 'a' && c <= 'z' }
