package engine

import (
	"crypto/rand"
	"encoding/binary"
)

// Crypto implements Engine using crypto/rand.
//
// Invariant: All samples are cryptographically secure.
type Crypto struct{}

// NewCrypto returns an Engine backed by crypto/rand.
func NewCrypto() Crypto {
	return Crypto{}
}

// Next returns a cryptographically secure sample.
//
// Panics with "engine: crypto/rand failure: <err>" if crypto/rand fails.
func (Crypto) Next() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("engine: crypto/rand failure: " + err.Error())
	}
	return binary.LittleEndian.Uint32(b[:])
}

// newSeed returns a random 32-bit seed.
func newSeed() (uint32, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
