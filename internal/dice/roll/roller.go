package roll

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// DiceRoller rolls notation and keeps an ordered log of the results.
//
// DiceRoller is safe for concurrent use. The log only grows, except through
// ClearLog.
type DiceRoller struct {
	mu       sync.Mutex
	log      []*DiceRoll
	settings settings
}

// NewDiceRoller returns a roller with an empty log.
func NewDiceRoller(opts ...Option) *DiceRoller {
	return &DiceRoller{settings: newSettings(opts)}
}

// Roll rolls notation and appends the result to the log.
//
// Precondition: notation is non-empty.
// Postcondition: on success the roll is the last log entry.
func (r *DiceRoller) Roll(notation string) (*DiceRoll, error) {
	rolls, err := r.RollAll(notation)
	if err != nil {
		return nil, err
	}
	return rolls[0], nil
}

// RollAll rolls every notation and appends the results to the log in order.
// If any notation fails nothing is appended.
//
// Precondition: at least one notation is given.
func (r *DiceRoller) RollAll(notations ...string) ([]*DiceRoll, error) {
	if len(notations) == 0 {
		return nil, errs.RequiredArgument("notation")
	}
	rolls := make([]*DiceRoll, 0, len(notations))
	for _, n := range notations {
		dr, err := New(n,
			WithGenerator(r.settings.generator),
			WithParser(r.settings.parse),
		)
		if err != nil {
			r.settings.logger.Warn("dice roll failed",
				zap.String("notation", n),
				zap.Error(err),
			)
			if r.settings.recorder != nil {
				r.settings.recorder.ObserveFailure(FailureReason(err))
			}
			return nil, err
		}
		r.observe(dr)
		rolls = append(rolls, dr)
	}

	r.mu.Lock()
	r.log = append(r.log, rolls...)
	r.mu.Unlock()
	return rolls, nil
}

func (r *DiceRoller) observe(dr *DiceRoll) {
	r.settings.logger.Debug("dice roll",
		zap.String("roll_id", uuid.NewString()),
		zap.String("notation", dr.Notation()),
		zap.String("output", dr.Output()),
		zap.Float64("total", dr.Total()),
	)
	if r.settings.recorder != nil {
		r.settings.recorder.ObserveRoll(dr.Total(), countResults(dr.Rolls()))
	}
}

// Log returns the rolls in the order they were made.
func (r *DiceRoller) Log() []*DiceRoll {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*DiceRoll(nil), r.log...)
}

// Len returns the number of logged rolls.
func (r *DiceRoller) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.log)
}

// Total returns the sum of every logged total.
func (r *DiceRoller) Total() float64 {
	var total float64
	for _, dr := range r.Log() {
		total += dr.Total()
	}
	return round2(total)
}

// Output returns every logged output joined by "; ".
func (r *DiceRoller) Output() string {
	log := r.Log()
	parts := make([]string, len(log))
	for i, dr := range log {
		parts[i] = dr.Output()
	}
	return strings.Join(parts, "; ")
}

// ClearLog empties the log.
func (r *DiceRoller) ClearLog() {
	r.mu.Lock()
	r.log = nil
	r.mu.Unlock()
}

// MarshalJSON implements json.Marshaler.
func (r *DiceRoller) MarshalJSON() ([]byte, error) {
	log := r.Log()
	if log == nil {
		log = []*DiceRoll{}
	}
	return json.Marshal(map[string]any{
		"type":   "diceRoller",
		"log":    log,
		"output": r.Output(),
		"total":  dice.JSONNumber(r.Total()),
	})
}

// Export serializes the roller. FormatObject yields a map[string]any; the
// other formats yield a string.
func (r *DiceRoller) Export(format Format) (any, error) {
	return export(r, format)
}

// Import appends rolls from exported data: a roller export ({"log": [...]}),
// a single roll export, a bare list of roll exports, another *DiceRoller or
// *DiceRoll, in any form Import accepts. Nothing is appended on error.
func (r *DiceRoller) Import(data any) error {
	var objects []any
	switch v := data.(type) {
	case *DiceRoller:
		for _, dr := range v.Log() {
			objects = append(objects, dr)
		}
	case []*DiceRoll:
		for _, dr := range v {
			objects = append(objects, dr)
		}
	default:
		decoded, err := decodeValue(data)
		if err != nil {
			return err
		}
		objects, err = logEntries(decoded)
		if err != nil {
			return err
		}
	}

	imported := make([]*DiceRoll, 0, len(objects))
	for i, o := range objects {
		obj, err := decodeObject(o)
		if err != nil {
			return errs.DataFormat("log entry %d: %v", i, err)
		}
		dr, err := fromObject(obj, r.settings)
		if err != nil {
			return err
		}
		imported = append(imported, dr)
	}

	r.mu.Lock()
	r.log = append(r.log, imported...)
	r.mu.Unlock()
	return nil
}

func logEntries(v any) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case map[string]any:
		if log, ok := t["log"]; ok {
			if log == nil {
				return nil, nil
			}
			entries, ok := log.([]any)
			if !ok {
				return nil, errs.DataFormat("log must be a list, got %T", log)
			}
			return entries, nil
		}
		if _, ok := t["notation"]; ok {
			return []any{t}, nil
		}
	}
	return nil, errs.DataFormat("import data is neither a roller, a roll nor a list of rolls")
}

// ImportDiceRoller builds a new roller whose log holds the imported rolls.
func ImportDiceRoller(data any, opts ...Option) (*DiceRoller, error) {
	r := NewDiceRoller(opts...)
	if err := r.Import(data); err != nil {
		return nil, err
	}
	return r, nil
}

// FailureReason classifies a roll error for metrics labels.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrNotationSyntax):
		return "notation_syntax"
	case errors.Is(err, errs.ErrDieAction):
		return "die_action"
	case errors.Is(err, errs.ErrRequiredArgument):
		return "required_argument"
	case errors.Is(err, errs.ErrCompareOperator):
		return "compare_operator"
	case errors.Is(err, errs.ErrDataFormat):
		return "data_format"
	case errors.Is(err, errs.ErrTypeMismatch):
		return "type_mismatch"
	}
	return "unknown"
}

// countResults returns the number of individual die results in tokens.
func countResults(tokens []dice.Token) int {
	n := 0
	for _, t := range tokens {
		switch v := t.(type) {
		case *dice.RollResults:
			n += v.Len()
		case *dice.ResultGroup:
			n += countResults(v.Results())
		}
	}
	return n
}
