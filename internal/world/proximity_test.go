package world

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/mathx"
)

type pair struct{ a, b ecs.EntityID }

func indexOf(dims int, pts []mathx.Point) *ProximityIndex {
	return BuildProximityIndex(dims, func(yield func(ecs.EntityID, mathx.Point) bool) {
		for i, p := range pts {
			if !yield(ecs.EntityID(i+1), p) {
				return
			}
		}
	})
}

func collect(ix *ProximityIndex, r float64) []pair {
	var out []pair
	for a, b := range ix.PairsWithin(r) {
		out = append(out, pair{a, b})
	}
	return out
}

func brute(ix *ProximityIndex, r float64) []pair {
	var out []pair
	ix.pairsBrute(r, func(a, b ecs.EntityID) bool {
		out = append(out, pair{a, b})
		return true
	})
	return out
}

func TestPairsWithinDiagonal(t *testing.T) {
	var pts []mathx.Point
	for i := 0; i < 10; i++ {
		pts = append(pts, mathx.Point{float64(i), float64(i)})
	}
	ix := indexOf(2, pts)

	got := collect(ix, 1.5)
	require.Len(t, got, 9)
	for i, p := range got {
		assert.Equal(t, ecs.EntityID(i+1), p.a)
		assert.Equal(t, ecs.EntityID(i+2), p.b)
	}
}

func TestPairsWithinBoundaryInclusive(t *testing.T) {
	cases := []struct {
		name string
		dims int
		a, b mathx.Point
		r    float64
	}{
		{"1d", 1, mathx.Point{0}, mathx.Point{2}, 2},
		{"2d", 2, mathx.Point{0, 0}, mathx.Point{3, 4}, 5},
		{"3d", 3, mathx.Point{1, 2, 2}, mathx.Point{0, 0, 0}, 3},
		{"negative coords", 2, mathx.Point{-3, -4}, mathx.Point{0, 0}, 5},
		{"zero radius coincident", 2, mathx.Point{7, 7}, mathx.Point{7, 7}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ix := indexOf(tc.dims, []mathx.Point{tc.a, tc.b})
			assert.Equal(t, []pair{{1, 2}}, collect(ix, tc.r))
			assert.Empty(t, collect(ix, math.Nextafter(tc.r, -1)))
		})
	}
}

func TestPairsWithinMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for dims := 1; dims <= 3; dims++ {
		for trial := 0; trial < 20; trial++ {
			n := rng.Intn(60)
			pts := make([]mathx.Point, n)
			for i := range pts {
				p := make(mathx.Point, dims)
				for d := range p {
					// integer lattice makes exact-boundary distances common
					p[d] = float64(rng.Intn(21) - 10)
				}
				pts[i] = p
			}
			ix := indexOf(dims, pts)
			for _, r := range []float64{0, 0.5, 1, math.Sqrt2, 2, 3.7, 50} {
				got := collect(ix, r)
				assert.Equal(t, brute(ix, r), got, "dims=%d n=%d r=%v", dims, n, r)

				seen := make(map[pair]bool)
				for _, p := range got {
					assert.NotEqual(t, p.a, p.b)
					assert.False(t, seen[p], "duplicate %v", p)
					assert.False(t, seen[pair{p.b, p.a}], "mirrored %v", p)
					seen[p] = true
				}
			}
		}
	}
}

func TestPairsWithinEdgeRadii(t *testing.T) {
	ix := indexOf(2, []mathx.Point{{0, 0}, {1, 0}})
	assert.Empty(t, collect(ix, -1))
	assert.Empty(t, collect(ix, math.NaN()))
	assert.Len(t, collect(ix, math.Inf(1)), 1)
}

func TestPairsWithinHugeCoordinatesFallsBack(t *testing.T) {
	ix := indexOf(1, []mathx.Point{{1e300}, {1e300}, {-1e300}})
	assert.Equal(t, []pair{{1, 2}}, collect(ix, 1e-300))
}

func TestPairsWithinStopsEarly(t *testing.T) {
	ix := indexOf(1, []mathx.Point{{0}, {0}, {0}, {0}})
	n := 0
	for range ix.PairsWithin(1) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestBuildSkipsUnusablePositions(t *testing.T) {
	ix := indexOf(2, []mathx.Point{{0, 0}, nil, {1}, {math.NaN(), 0}, {1, 1}})
	assert.Equal(t, 2, ix.Len())
	_, ok := ix.Position(2)
	assert.False(t, ok)
	p, ok := ix.Position(5)
	require.True(t, ok)
	assert.Equal(t, mathx.Point{1, 1}, p)
}

func TestWithin(t *testing.T) {
	ix := indexOf(2, []mathx.Point{{0, 0}, {3, 4}, {6, 8}, {-3, -4}})
	assert.Equal(t, []ecs.EntityID{1, 2, 4}, ix.Within(mathx.Point{0, 0}, 5))
	assert.Equal(t, []ecs.EntityID{2, 3}, ix.Within(mathx.Point{4.5, 6}, 2.5))
	assert.Nil(t, ix.Within(mathx.Point{0}, 5))
	assert.Nil(t, ix.Within(mathx.Point{0, 0}, -1))

	got := ix.Within(mathx.Point{0, 0}, 100)
	assert.True(t, slices.IsSorted(got))
	assert.Len(t, got, 4)
}
