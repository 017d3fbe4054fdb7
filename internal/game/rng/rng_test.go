package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "draw %d diverged", i)
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 20; i++ {
		if a.Uint64() == b.Uint64() {
			same++
		}
	}
	assert.Less(t, same, 20)
}

func TestZeroSeedIsUsable(t *testing.T) {
	r := New(0)
	assert.NotZero(t, r.State)
	assert.NotEqual(t, r.Uint64(), r.Uint64())
}

func TestFloat64Range(t *testing.T) {
	r := New(7)
	for i := 0; i < 10000; i++ {
		f := r.Float64()
		if f < 0 || f >= 1 {
			t.Fatalf("draw %d out of range: %v", i, f)
		}
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	r := New(3)
	in := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out := Shuffle(&r, in)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, in, "input must not be modified")
	assert.ElementsMatch(t, in, out)
}

func TestShuffleDeterministic(t *testing.T) {
	a := New(99)
	b := New(99)
	in := []string{"a", "b", "c", "d", "e", "f"}
	assert.Equal(t, Shuffle(&a, in), Shuffle(&b, in))
}

func TestIDsAreUnique(t *testing.T) {
	r := New(5)
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := r.ID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, uint64(500), r.Issued)
}

func TestCopyForks(t *testing.T) {
	a := New(11)
	a.Uint64()
	b := a
	assert.Equal(t, a.Uint64(), b.Uint64())
}
