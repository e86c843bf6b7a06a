package queue

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedMaxHeap(t *testing.T) {
	t.Run("KeepsKClosest", func(t *testing.T) {
		h := NewBoundedMaxHeap(3)

		for i, d := range []float32{5, 1, 4, 2, 8, 3} {
			h.Push(Item{Index: uint32(i), Distance: d})
		}

		require.Equal(t, 3, h.Len())

		var got []float32
		for h.Len() > 0 {
			item, ok := h.Pop()
			require.True(t, ok)
			got = append(got, item.Distance)
		}
		// Worst-first pop order.
		assert.Equal(t, []float32{3, 2, 1}, got)
	})

	t.Run("BelowCapacity", func(t *testing.T) {
		h := NewBoundedMaxHeap(10)
		h.Push(Item{Index: 0, Distance: 2})
		h.Push(Item{Index: 1, Distance: 1})

		assert.Equal(t, 2, h.Len())
		top, ok := h.Top()
		require.True(t, ok)
		assert.Equal(t, float32(2), top.Distance)
	})

	t.Run("TiesPreferSmallerIndex", func(t *testing.T) {
		h := NewBoundedMaxHeap(2)
		h.Push(Item{Index: 7, Distance: 1})
		h.Push(Item{Index: 3, Distance: 1})
		// Same distance, smaller index: displaces index 7.
		h.Push(Item{Index: 1, Distance: 1})

		a, _ := h.Pop()
		b, _ := h.Pop()
		assert.Equal(t, uint32(3), a.Index)
		assert.Equal(t, uint32(1), b.Index)
	})

	t.Run("Empty", func(t *testing.T) {
		h := NewBoundedMaxHeap(2)
		_, ok := h.Pop()
		assert.False(t, ok)
		_, ok = h.Top()
		assert.False(t, ok)
	})

	t.Run("Reset", func(t *testing.T) {
		h := NewBoundedMaxHeap(2)
		h.Push(Item{Index: 0, Distance: 1})
		h.Reset(5)

		assert.Equal(t, 0, h.Len())
		assert.Equal(t, 5, h.Cap())
	})

	t.Run("MatchesSortOracle", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))

		for trial := 0; trial < 20; trial++ {
			k := 1 + rng.IntN(16)
			n := rng.IntN(100)

			h := NewBoundedMaxHeap(k)
			dists := make([]float32, n)
			for i := range dists {
				dists[i] = rng.Float32()
				h.Push(Item{Index: uint32(i), Distance: dists[i]})
			}

			sort.Slice(dists, func(i, j int) bool { return dists[i] < dists[j] })

			want := min(k, n)
			require.Equal(t, want, h.Len())

			got := make([]float32, h.Len())
			for i := h.Len() - 1; i >= 0; i-- {
				item, _ := h.Pop()
				got[i] = item.Distance
			}
			assert.Equal(t, dists[:want], got)
		}
	})
}
