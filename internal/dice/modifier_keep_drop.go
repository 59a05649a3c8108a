package dice

import (
	"sort"
	"strconv"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// End selects the highest or lowest results.
type End string

const (
	EndHighest End = "h"
	EndLowest  End = "l"
)

func parseEnd(end End, def End) (End, error) {
	switch end {
	case "":
		return def, nil
	case EndHighest, EndLowest:
		return end, nil
	}
	return "", errs.TypeMismatch("end must be %q or %q, got %q", EndHighest, EndLowest, end)
}

func validQty(qty int, name string) error {
	if qty < 1 {
		return errs.TypeMismatch("%s quantity must be at least 1, got %d", name, qty)
	}
	return nil
}

// KeepModifier keeps the qty highest or lowest results and drops the rest.
type KeepModifier struct {
	end End
	qty int
}

// NewKeepModifier builds a keep modifier; end defaults to highest.
func NewKeepModifier(end End, qty int) (*KeepModifier, error) {
	e, err := parseEnd(end, EndHighest)
	if err != nil {
		return nil, err
	}
	if err := validQty(qty, "keep"); err != nil {
		return nil, err
	}
	return &KeepModifier{end: e, qty: qty}, nil
}

func (m *KeepModifier) Name() string     { return "keep" }
func (m *KeepModifier) Order() int       { return OrderKeep }
func (m *KeepModifier) End() End         { return m.end }
func (m *KeepModifier) Qty() int         { return m.qty }
func (m *KeepModifier) Notation() string { return "k" + string(m.end) + strconv.Itoa(m.qty) }

func (m *KeepModifier) Run(results Results, _ *Context) error {
	sorted := activeByValue(results)
	var drop []Result
	if m.end == EndHighest {
		drop = sorted[:max(len(sorted)-m.qty, 0)]
	} else {
		drop = sorted[min(m.qty, len(sorted)):]
	}
	markDropped(drop)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *KeepModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"end": m.end, "qty": m.qty})
}

// DropModifier drops the qty highest or lowest results.
type DropModifier struct {
	end End
	qty int
}

// NewDropModifier builds a drop modifier; end defaults to lowest.
func NewDropModifier(end End, qty int) (*DropModifier, error) {
	e, err := parseEnd(end, EndLowest)
	if err != nil {
		return nil, err
	}
	if err := validQty(qty, "drop"); err != nil {
		return nil, err
	}
	return &DropModifier{end: e, qty: qty}, nil
}

func (m *DropModifier) Name() string     { return "drop" }
func (m *DropModifier) Order() int       { return OrderDrop }
func (m *DropModifier) End() End         { return m.end }
func (m *DropModifier) Qty() int         { return m.qty }
func (m *DropModifier) Notation() string { return "d" + string(m.end) + strconv.Itoa(m.qty) }

func (m *DropModifier) Run(results Results, _ *Context) error {
	sorted := activeByValue(results)
	var drop []Result
	if m.end == EndHighest {
		drop = sorted[max(len(sorted)-m.qty, 0):]
	} else {
		drop = sorted[:min(m.qty, len(sorted))]
	}
	markDropped(drop)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *DropModifier) MarshalJSON() ([]byte, error) {
	return modifierJSON(m, map[string]any{"end": m.end, "qty": m.qty})
}

// activeByValue returns the results still used in the total, ascending by value.
func activeByValue(results Results) []Result {
	var active []Result
	for _, r := range results.Entries() {
		if r.UseInTotal() {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Value() < active[j].Value() })
	return active
}

func markDropped(rs []Result) {
	for _, r := range rs {
		r.SetUseInTotal(false)
		r.AddFlag(FlagDrop)
	}
}
