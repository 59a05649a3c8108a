// Package roll executes parsed notation: DiceRoll rolls one notation and
// evaluates its total, DiceRoller keeps an ordered log of rolls. Both
// export to and import from JSON, base64, YAML and plain objects.
package roll

import (
	"go.uber.org/zap"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/engine"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/parser"
)

// ParseFunc turns notation into tokens. parser.Parse and
// (*parser.Cache).Parse both satisfy it.
type ParseFunc func(notation string) ([]dice.Token, error)

// Recorder receives roll outcomes, typically for metrics.
type Recorder interface {
	// ObserveRoll records a successful roll with its total and the number of
	// individual die results it produced.
	ObserveRoll(total float64, results int)
	// ObserveFailure records a failed roll by error kind.
	ObserveFailure(reason string)
}

// Option configures a DiceRoll or DiceRoller.
type Option func(*settings)

type settings struct {
	generator *engine.Generator
	parse     ParseFunc
	logger    *zap.Logger
	recorder  Recorder
}

func newSettings(opts []Option) settings {
	s := settings{
		generator: engine.Default(),
		parse:     parser.Parse,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithGenerator sets the random source. nil keeps the process default.
func WithGenerator(g *engine.Generator) Option {
	return func(s *settings) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithParser replaces the notation parser, e.g. with a cache.
func WithParser(p ParseFunc) Option {
	return func(s *settings) {
		if p != nil {
			s.parse = p
		}
	}
}

// WithLogger sets the logger used by DiceRoller.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRecorder reports DiceRoller outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(s *settings) { s.recorder = r }
}
