// Package errs defines the error taxonomy shared by the dice engine, parser
// and roller.
//
// Every failure wraps exactly one of the sentinel kinds below so callers can
// branch with errors.Is; SyntaxError and DieActionError carry extra detail
// for errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRequiredArgument indicates a mandatory parameter was missing or empty.
	ErrRequiredArgument = errors.New("required argument missing")
	// ErrNotationSyntax indicates the notation text could not be parsed.
	ErrNotationSyntax = errors.New("invalid notation")
	// ErrCompareOperator indicates an unknown comparison operator.
	ErrCompareOperator = errors.New("invalid compare operator")
	// ErrDataFormat indicates import data was not JSON, base64 or a known shape.
	ErrDataFormat = errors.New("invalid data format")
	// ErrDieAction indicates a self-referential modifier on a die that cannot terminate.
	ErrDieAction = errors.New("invalid die action")
	// ErrTypeMismatch indicates a value failed a type or range check.
	ErrTypeMismatch = errors.New("type mismatch")
)

// RequiredArgument returns an ErrRequiredArgument naming the missing parameter.
func RequiredArgument(name string) error {
	return fmt.Errorf("%w: %s", ErrRequiredArgument, name)
}

// TypeMismatch returns an ErrTypeMismatch with a formatted reason.
func TypeMismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

// CompareOperator returns an ErrCompareOperator for operator.
func CompareOperator(operator string) error {
	return fmt.Errorf("%w: %q", ErrCompareOperator, operator)
}

// DataFormat returns an ErrDataFormat with a formatted reason.
func DataFormat(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDataFormat, fmt.Sprintf(format, args...))
}

// Position is a point in the notation source.
//
// Offset is a 0-based byte offset; Line and Column are 1-based.
type Position struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is the [Start, End) span of the offending source text.
type Location struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// SyntaxError describes why the parser rejected a notation.
type SyntaxError struct {
	Message  string
	Expected []string
	Found    string
	Location Location
}

func (e *SyntaxError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, " (expected %s", strings.Join(e.Expected, ", "))
		if e.Found == "" {
			b.WriteString(" but found end of input)")
		} else {
			fmt.Fprintf(&b, " but found %q)", e.Found)
		}
	}
	fmt.Fprintf(&b, " at line %d, column %d", e.Location.Start.Line, e.Location.Start.Column)
	return b.String()
}

// Unwrap reports the error kind.
func (e *SyntaxError) Unwrap() error { return ErrNotationSyntax }

// DieActionError reports a modifier that would never terminate on a die.
type DieActionError struct {
	// Action is the modifier name, e.g. "explode".
	Action string
	// Die is the notation of the die the modifier was attached to.
	Die string
}

func (e *DieActionError) Error() string {
	return fmt.Sprintf("%s: die %q cannot %s because its min and max values are equal", ErrDieAction, e.Die, e.Action)
}

// Unwrap reports the error kind.
func (e *DieActionError) Unwrap() error { return ErrDieAction }
