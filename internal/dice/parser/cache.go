package parser

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/errs"
)

// Cache memoizes parsed notation. Callers always receive a private copy of
// the tokens, so modifying or rolling them never affects the cached entry.
//
// Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, []dice.Token]
	observe func(hit bool)
}

// NewCache returns a cache holding up to size notations. observe, when
// non-nil, is called with the outcome of every lookup.
//
// Precondition: size > 0.
func NewCache(size int, observe func(hit bool)) (*Cache, error) {
	if size <= 0 {
		return nil, errs.TypeMismatch("parse cache size must be positive, got %d", size)
	}
	entries, err := lru.New[string, []dice.Token](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries, observe: observe}, nil
}

// Parse returns the tokens for notation, parsing it on a miss. Failed parses
// are not cached.
func (c *Cache) Parse(notation string) ([]dice.Token, error) {
	if tokens, ok := c.entries.Get(notation); ok {
		c.record(true)
		return dice.CloneTokens(tokens), nil
	}
	c.record(false)
	tokens, err := Parse(notation)
	if err != nil {
		return nil, err
	}
	c.entries.Add(notation, tokens)
	return dice.CloneTokens(tokens), nil
}

// Len returns the number of cached notations.
func (c *Cache) Len() int { return c.entries.Len() }

// Purge empties the cache.
func (c *Cache) Purge() { c.entries.Purge() }

func (c *Cache) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}
