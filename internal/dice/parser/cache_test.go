package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice"
	"github.com/dice-roller/rpg-dice-roller-sub002/internal/dice/parser"
)

func TestCache_HitsAndMisses(t *testing.T) {
	var hits, misses int
	c, err := parser.NewCache(2, func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	})
	require.NoError(t, err)

	for _, n := range []string{"1d6", "1d6", "2d8", "1d6", "3d4", "2d8"} {
		_, err := c.Parse(n)
		require.NoError(t, err)
	}
	// 2d8 was evicted by 3d4 after 1d6 became most recently used
	assert.Equal(t, 2, hits)
	assert.Equal(t, 4, misses)
	assert.Equal(t, 2, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ReturnsIndependentCopies(t *testing.T) {
	c, err := parser.NewCache(4, nil)
	require.NoError(t, err)

	first, err := c.Parse("4d6")
	require.NoError(t, err)
	first[0].(*dice.Dice).AddModifier(dice.NewReRollModifier(nil, false))

	second, err := c.Parse("4d6")
	require.NoError(t, err)
	assert.Equal(t, "4d6", dice.Notation(second))
	assert.NotSame(t, first[0], second[0])
}

func TestCache_DoesNotStoreFailures(t *testing.T) {
	c, err := parser.NewCache(4, nil)
	require.NoError(t, err)
	_, err = c.Parse("2d")
	require.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestNewCache_RejectsNonPositiveSize(t *testing.T) {
	_, err := parser.NewCache(0, nil)
	assert.Error(t, err)
}
