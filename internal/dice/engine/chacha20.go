package engine

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/crypto/chacha20"
)

// ChaCha20 is a seedable, cryptographically strong engine built on the
// ChaCha20 keystream.
type ChaCha20 struct {
	cipher *chacha20.Cipher
	buf    [64]byte
	pos    int
	uses   int
}

// NewChaCha20 returns a ChaCha20 engine keyed from seed.
func NewChaCha20(seed uint32) *ChaCha20 {
	c := &ChaCha20{}
	c.Seed(seed)
	return c
}

// Seed rekeys the stream. The seed fills the first four key bytes.
func (c *ChaCha20) Seed(seed uint32) {
	var key [chacha20.KeySize]byte
	binary.LittleEndian.PutUint32(key[:4], seed)
	c.rekey(key[:])
}

// AutoSeed rekeys the stream with a full random key.
func (c *ChaCha20) AutoSeed() error {
	var key [chacha20.KeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return err
	}
	c.rekey(key[:])
	return nil
}

func (c *ChaCha20) rekey(key []byte) {
	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key, nonce[:])
	if err != nil {
		// key and nonce sizes are fixed above
		panic("engine: chacha20 setup failure: " + err.Error())
	}
	c.cipher = cipher
	c.pos = len(c.buf)
	c.uses = 0
}

// Next returns the next four keystream bytes.
func (c *ChaCha20) Next() uint32 {
	if c.pos+4 > len(c.buf) {
		clear(c.buf[:])
		c.cipher.XORKeyStream(c.buf[:], c.buf[:])
		c.pos = 0
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	c.uses++
	return v
}

// Discard advances the stream by count samples.
func (c *ChaCha20) Discard(count int) {
	for i := 0; i < count; i++ {
		c.Next()
	}
}

// UseCount returns the number of samples drawn since the last seed.
func (c *ChaCha20) UseCount() int {
	return c.uses
}
