package dice

import "github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"

// Direction is a sort direction.
type Direction string

const (
	Ascending  Direction = "a"
	Descending Direction = "d"
)

// SortingModifier reorders results. Totals are unaffected.
type SortingModifier struct {
	direction Direction
}

// NewSortingModifier builds a sorting modifier; direction defaults to ascending.
func NewSortingModifier(direction Direction) (*SortingModifier, error) {
	switch direction {
	case "":
		direction = Ascending
	case Ascending, Descending:
	default:
		return nil, errs.TypeMismatch("sort direction must be %q or %q, got %q", Ascending, Descending, direction)
	}
	return &SortingModifier{direction: direction}, nil
}

func (m *SortingModifier) Name() string         { return "sorting" }
func (m *SortingModifier) Order() int           { return OrderSorting }
func (m *SortingModifier) Direction() Direction { return m.direction }
func (m *SortingModifier) Notation() string     { return "s" + string(m.direction) }

func (m *SortingModifier) Run(results Results, _ *Context) error {
	results.Sort(m.direction == Descending)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *SortingModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"direction": m.direction})
}
