package engine

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRNG_Deterministic(t *testing.T) {
	rng1 := NewRNG(42)
	rng2 := NewRNG(42)

	for i := 0; i < 20; i++ {
		a := []string{"a", "b", "c", "d", "e"}
		b := slices.Clone(a)
		rng1.Shuffle(a)
		rng2.Shuffle(b)
		assert.Equal(t, a, b, "shuffle %d", i)
	}
	assert.Equal(t, int64(20), rng1.Position())
	assert.Equal(t, int64(42), rng1.Seed())
}

func TestRNG_ShuffleIsPermutation(t *testing.T) {
	rng := NewRNG(7)
	ids := []string{"bat", "cat", "rat", "wolf"}
	for i := 0; i < 50; i++ {
		rng.Shuffle(ids)
		sorted := slices.Clone(ids)
		slices.Sort(sorted)
		assert.Equal(t, []string{"bat", "cat", "rat", "wolf"}, sorted)
	}
}
