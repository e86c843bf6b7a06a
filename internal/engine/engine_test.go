package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/neargo/box"
	"github.com/hupe1980/neargo/internal/cells"
	"github.com/hupe1980/neargo/model"
)

func testEngine(t *testing.T, n int, cellSize float32) (*Engine, []mgl32.Vec3) {
	t.Helper()

	b, err := box.New(10, 10, 10)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(11, 12))
	pts := make([]mgl32.Vec3, n)
	for i := range pts {
		pts[i] = mgl32.Vec3{rng.Float32() * 10, rng.Float32() * 10, rng.Float32() * 10}
	}

	g := cells.Build(b, pts, cellSize)
	return New(b, g, pts), pts
}

func TestBallCountMatchesFill(t *testing.T) {
	e, pts := testEngine(t, 300, 1.5)
	s := e.NewSearcher()

	spec := model.Spec{Mode: model.ModeBall, RMax: 1.5, ExcludeSelf: true}
	for i := range pts {
		count := e.Ball(s, uint32(i), pts[i], spec, nil)

		out := make([]model.Bond, count)
		filled := e.Ball(s, uint32(i), pts[i], spec, out)
		require.Equal(t, count, filled)

		for j, b := range out {
			assert.Equal(t, uint32(i), b.Query)
			assert.Less(t, b.Distance, spec.RMax)
			assert.Equal(t, float32(1), b.Weight)
			if j > 0 {
				assert.GreaterOrEqual(t, b.Distance, out[j-1].Distance)
			}
		}
	}
}

func TestBallNearestOnly(t *testing.T) {
	e, pts := testEngine(t, 300, 2)
	s := e.NewSearcher()

	all := model.Spec{Mode: model.ModeBall, RMax: 2, ExcludeSelf: true}
	nearest := all
	nearest.NearestOnly = true

	for i := range pts {
		buf := make([]model.Bond, e.Ball(s, uint32(i), pts[i], all, nil))
		e.Ball(s, uint32(i), pts[i], all, buf)

		n := e.Ball(s, uint32(i), pts[i], nearest, nil)
		if len(buf) == 0 {
			assert.Zero(t, n)
			continue
		}

		require.Equal(t, 1, n)
		out := make([]model.Bond, 1)
		e.Ball(s, uint32(i), pts[i], nearest, out)
		assert.Equal(t, buf[0].Neighbor, out[0].Neighbor)
		assert.Equal(t, buf[0].Distance, out[0].Distance)
	}
}

func TestKNNAgainstBruteForce(t *testing.T) {
	e, pts := testEngine(t, 200, 2)
	s := e.NewSearcher()

	spec := model.Spec{Mode: model.ModeKNN, K: 7, ExcludeSelf: true}
	for i := range pts {
		n, short := e.KNN(s, uint32(i), pts[i], spec, nil)
		require.Equal(t, spec.K, n)
		require.False(t, short)

		out := make([]model.Bond, n)
		e.KNN(s, uint32(i), pts[i], spec, out)

		want := bruteKNN(e, pts, i, spec.K)
		for j := range out {
			assert.Equal(t, want[j].Neighbor, out[j].Neighbor, "query %d rank %d", i, j)
			assert.InDelta(t, want[j].Distance, out[j].Distance, 1e-5)
		}
	}
}

func TestKNNInsufficient(t *testing.T) {
	e, pts := testEngine(t, 5, 2)
	s := e.NewSearcher()

	spec := model.Spec{Mode: model.ModeKNN, K: 10, ExcludeSelf: true}
	n, short := e.KNN(s, 0, pts[0], spec, nil)
	assert.Equal(t, 4, n)
	assert.True(t, short)
}

func TestFilter(t *testing.T) {
	e, pts := testEngine(t, 100, 2)
	s := e.NewSearcher()

	even := func(id uint32) bool { return id%2 == 0 }
	spec := model.Spec{Mode: model.ModeBall, RMax: 4, ExcludeSelf: true, Filter: even}

	count := e.Ball(s, 1, pts[1], spec, nil)
	out := make([]model.Bond, count)
	e.Ball(s, 1, pts[1], spec, out)
	for _, b := range out {
		assert.Zero(t, b.Neighbor%2)
	}
}

func bruteKNN(e *Engine, pts []mgl32.Vec3, qi, k int) []model.Bond {
	var all []model.Bond
	for j := range pts {
		if j == qi {
			continue
		}
		delta, d := e.box.MinImage(pts[qi], pts[j])
		all = append(all, model.Bond{Query: uint32(qi), Neighbor: uint32(j), Distance: d, Delta: delta})
	}
	sortBonds(all)
	if len(all) > k {
		all = all[:k]
	}
	return all
}
