package engine

import (
	"math"
	"math/bits"
	"sync"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// MaxSafeInteger is the largest integer a float64 represents exactly.
const MaxSafeInteger = 1<<53 - 1

// Generator turns engine samples into uniform numbers.
//
// Generator is safe for concurrent use. Swapping the engine takes effect on
// the next call.
type Generator struct {
	mu     sync.Mutex
	engine Engine
}

var defaultGenerator = NewGenerator(nil)

// Default returns the process-wide generator used when callers do not supply
// their own.
func Default() *Generator {
	return defaultGenerator
}

// NewGenerator returns a Generator drawing from e, or from a Native engine
// when e is nil.
func NewGenerator(e Engine) *Generator {
	if e == nil {
		e = NewNative()
	}
	return &Generator{engine: e}
}

// Engine returns the active engine.
func (g *Generator) Engine() Engine {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.engine
}

// SetEngine swaps the active engine. A nil value restores the default Native
// engine; a value that is not an Engine is rejected.
func (g *Generator) SetEngine(v any) error {
	var e Engine
	switch t := v.(type) {
	case nil:
		e = NewNative()
	case Engine:
		e = t
	default:
		return errs.TypeMismatch("engine must implement Next() uint32, got %T", v)
	}
	g.mu.Lock()
	g.engine = e
	g.mu.Unlock()
	return nil
}

// Integer returns a uniform integer in [min, max].
//
// Precondition: both bounds are safe integers and min <= max.
// Postcondition: an engine sample of 0 yields min; a sample of all ones yields max.
func (g *Generator) Integer(min, max int64) (int64, error) {
	if !safe(min) || !safe(max) {
		return 0, errs.TypeMismatch("integer bounds [%d, %d] must be safe integers", min, max)
	}
	if min > max {
		return 0, errs.TypeMismatch("integer min %d must not exceed max %d", min, max)
	}
	n := uint64(max-min) + 1
	hi, _ := bits.Mul64(g.sample64(), n)
	return min + int64(hi), nil
}

// Real returns a uniform float in [min, max) or, when inclusive, [min, max].
func (g *Generator) Real(min, max float64, inclusive bool) (float64, error) {
	if math.IsNaN(min) || math.IsInf(min, 0) || math.IsNaN(max) || math.IsInf(max, 0) {
		return 0, errs.TypeMismatch("real bounds [%v, %v] must be finite", min, max)
	}
	if min > max {
		return 0, errs.TypeMismatch("real min %v must not exceed max %v", min, max)
	}
	x := float64(g.sample64() >> 11)
	var f float64
	if inclusive {
		f = x / float64(1<<53-1)
	} else {
		f = x / float64(1<<53)
	}
	return min + f*(max-min), nil
}

func (g *Generator) sample64() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	hi := uint64(g.engine.Next())
	lo := uint64(g.engine.Next())
	return hi<<32 | lo
}

func safe(n int64) bool {
	return n >= -MaxSafeInteger && n <= MaxSafeInteger
}
