package neargo

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neargo/model"
)

func bond(q, n uint32, d float32) model.Bond {
	return model.Bond{Query: q, Neighbor: n, Distance: d, Delta: mgl32.Vec3{d, 0, 0}, Weight: 1}
}

func TestNewNeighborList(t *testing.T) {
	bonds := []model.Bond{
		bond(0, 1, 0.5),
		bond(0, 2, 1.2),
		bond(2, 0, 0.3),
	}

	list, err := NewNeighborList(3, bonds)
	require.NoError(t, err)

	assert.Equal(t, 3, list.Len())
	assert.Equal(t, 3, list.NumQuery())
	assert.Equal(t, 2, list.Count(0))
	assert.Equal(t, 0, list.Count(1))
	assert.Equal(t, 1, list.Count(2))
	assert.Equal(t, 2, list.Offset(2))
	assert.Equal(t, bonds[2], list.At(2))
	assert.Equal(t, bonds[:2], list.Bonds(0))
	assert.Empty(t, list.Bonds(1))
	assert.True(t, list.Complete())
	assert.False(t, list.SelfReferencing())

	var seen []model.Bond
	for i, b := range list.All() {
		assert.Equal(t, len(seen), i)
		seen = append(seen, b)
	}
	assert.Equal(t, bonds, seen)

	t.Run("ClonesInput", func(t *testing.T) {
		bonds[0].Neighbor = 99
		assert.Equal(t, uint32(1), list.At(0).Neighbor)
	})
}

func TestNewNeighborListRejectsUnsorted(t *testing.T) {
	t.Run("QueryOutOfRange", func(t *testing.T) {
		_, err := NewNeighborList(2, []model.Bond{bond(2, 0, 1)})
		assert.ErrorIs(t, err, ErrUnsortedBonds)
	})

	t.Run("QueryDescending", func(t *testing.T) {
		_, err := NewNeighborList(3, []model.Bond{bond(1, 0, 1), bond(0, 1, 1)})
		assert.ErrorIs(t, err, ErrUnsortedBonds)
	})

	t.Run("DistanceDescending", func(t *testing.T) {
		_, err := NewNeighborList(3, []model.Bond{bond(0, 1, 2), bond(0, 2, 1)})
		assert.ErrorIs(t, err, ErrUnsortedBonds)
	})
}

func TestNeighborListOptions(t *testing.T) {
	list, err := NewNeighborList(4, nil,
		WithInsufficient([]uint32{3, 1}),
		WithSelfReferencing(),
	)
	require.NoError(t, err)

	assert.Equal(t, []uint32{1, 3}, list.Insufficient())
	assert.False(t, list.Complete())
	assert.True(t, list.SelfReferencing())
}

func TestSymmetrize(t *testing.T) {
	t.Run("AddsMirrors", func(t *testing.T) {
		list, err := NewNeighborList(3, []model.Bond{
			bond(0, 1, 0.5),
			bond(1, 0, 0.5),
			bond(1, 2, 0.8),
		}, WithSelfReferencing())
		require.NoError(t, err)

		sym, err := list.Symmetrize()
		require.NoError(t, err)

		require.Equal(t, 4, sym.Len())
		mirror := sym.Bonds(2)[0]
		assert.Equal(t, uint32(1), mirror.Neighbor)
		assert.Equal(t, float32(0.8), mirror.Distance)
		assert.Equal(t, mgl32.Vec3{-0.8, 0, 0}, mirror.Delta)

		// The already mutual (0,1)/(1,0) pair is not duplicated.
		assert.Equal(t, 1, sym.Count(0))
	})

	t.Run("Idempotent", func(t *testing.T) {
		list, err := NewNeighborList(2, []model.Bond{bond(0, 1, 1)}, WithSelfReferencing())
		require.NoError(t, err)

		once, err := list.Symmetrize()
		require.NoError(t, err)
		twice, err := once.Symmetrize()
		require.NoError(t, err)

		assert.Equal(t, once.bonds, twice.bonds)
		assert.Equal(t, once.offsets, twice.offsets)
	})

	t.Run("RejectsTwoSetList", func(t *testing.T) {
		list, err := NewNeighborList(2, []model.Bond{bond(0, 1, 1)})
		require.NoError(t, err)

		_, err = list.Symmetrize()
		assert.ErrorIs(t, err, ErrAsymmetricSets)
	})

	t.Run("RejectsNeighborOutOfRange", func(t *testing.T) {
		list, err := NewNeighborList(2, []model.Bond{bond(0, 5, 1)}, WithSelfReferencing())
		require.NoError(t, err)

		_, err = list.Symmetrize()
		assert.ErrorIs(t, err, ErrAsymmetricSets)
	})

	t.Run("KeepsInsufficient", func(t *testing.T) {
		list, err := NewNeighborList(2, []model.Bond{bond(0, 1, 1)},
			WithSelfReferencing(), WithInsufficient([]uint32{1}))
		require.NoError(t, err)

		sym, err := list.Symmetrize()
		require.NoError(t, err)
		assert.Equal(t, []uint32{1}, sym.Insufficient())
	})
}
