// Package engine provides the pluggable randomness behind dice rolls.
//
// An Engine produces raw 32-bit samples. A Generator wraps the active engine
// and turns samples into uniform integers and reals. Engines are not safe for
// concurrent use on their own; the Generator serializes access to them.
package engine

import (
	"fmt"
	"strings"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// Engine is a source of raw entropy.
type Engine interface {
	// Next returns the next 32-bit sample.
	Next() uint32
}

// SeedableEngine is an Engine whose sequence can be reproduced.
type SeedableEngine interface {
	Engine
	// Seed resets the engine to the sequence identified by seed.
	Seed(seed uint32)
	// AutoSeed seeds the engine from crypto/rand.
	AutoSeed() error
	// Discard advances the engine by count samples.
	Discard(count int)
	// UseCount returns the number of samples produced since the last seed.
	UseCount() int
}

// Engine names accepted by ByName.
const (
	NameNative   = "native"
	NameCrypto   = "crypto"
	NameMT19937  = "mt19937"
	NameChaCha20 = "chacha20"
	NameMin      = "min"
	NameMax      = "max"
)

// Names lists every engine ByName can build.
func Names() []string {
	return []string{NameNative, NameCrypto, NameMT19937, NameChaCha20, NameMin, NameMax}
}

// ByName builds the named engine. Seedable engines are seeded with seed, or
// auto-seeded when seed is 0.
//
// Postcondition: Returns a non-nil Engine or an ErrTypeMismatch error.
func ByName(name string, seed uint32) (Engine, error) {
	var e Engine
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameNative, "":
		if seed != 0 {
			return NewNativeSeeded(uint64(seed)), nil
		}
		return NewNative(), nil
	case NameCrypto:
		return NewCrypto(), nil
	case NameMT19937:
		e = NewMT19937(5489)
	case NameChaCha20:
		e = NewChaCha20(0)
	case NameMin:
		return Min{}, nil
	case NameMax:
		return NewMax(), nil
	default:
		return nil, errs.TypeMismatch("unknown engine %q (supported: %s)", name, strings.Join(Names(), ", "))
	}

	se := e.(SeedableEngine)
	if seed != 0 {
		se.Seed(seed)
		return se, nil
	}
	if err := se.AutoSeed(); err != nil {
		return nil, fmt.Errorf("seeding %s engine: %w", name, err)
	}
	return se, nil
}
