package dice

import (
	"encoding/json"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// DescriptionType distinguishes single-line from multi-line descriptions.
type DescriptionType string

const (
	DescriptionInline    DescriptionType = "inline"
	DescriptionMultiline DescriptionType = "multiline"
)

// Description is free text attached to a die or roll group.
type Description struct {
	text string
	typ  DescriptionType
}

// NewDescription trims text and validates it is non-empty.
func NewDescription(text string, typ DescriptionType) (*Description, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errs.RequiredArgument("description text")
	}
	switch typ {
	case DescriptionInline, DescriptionMultiline:
	case "":
		typ = DescriptionInline
	default:
		return nil, errs.TypeMismatch("description type must be %q or %q, got %q", DescriptionInline, DescriptionMultiline, typ)
	}
	return &Description{text: text, typ: typ}, nil
}

// Text returns the trimmed description text.
func (d *Description) Text() string { return d.text }

// Type returns the description type.
func (d *Description) Type() DescriptionType { return d.typ }

// String renders the description in notation form.
func (d *Description) String() string {
	if d.typ == DescriptionMultiline {
		return "[" + d.text + "]"
	}
	return "# " + d.text
}

// MarshalJSON implements json.Marshaler.
func (d *Description) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{"text": d.text, "type": d.typ})
}
