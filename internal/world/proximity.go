package world

import (
	"iter"
	"math"
	"slices"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/mathx"
)

// ProximityIndex is a read-only snapshot of entity positions taken at the
// start of a tick. Queries bin points into a uniform grid whose cell side
// equals the query radius, so only the 3^N surrounding cells are scanned.
// Expected cost is O(n·k) for k neighbours per point; the brute-force
// O(n²) scan (pairsBrute) is the correctness ceiling and is used when the
// grid cannot represent the coordinates.
// Accessed only from the tick goroutine, without locks.
type ProximityIndex struct {
	dims   int
	ids    []ecs.EntityID
	points []mathx.Point
	order  map[ecs.EntityID]int
	grids  map[float64]*cellGrid // cell side → grid, built lazily
}

// maxCellCoord bounds grid coordinates so they stay exact in int64.
const maxCellCoord = 1 << 52

type cellKey [3]int64

type cellGrid struct {
	cells map[cellKey][]int // cell → snapshot positions, ascending
	ok    bool
}

// BuildProximityIndex snapshots entries in iteration order. Entries with a
// nil, non-finite, or wrongly sized point are not indexed.
func BuildProximityIndex(dims int, entries iter.Seq2[ecs.EntityID, mathx.Point]) *ProximityIndex {
	ix := &ProximityIndex{
		dims:  dims,
		order: make(map[ecs.EntityID]int),
		grids: make(map[float64]*cellGrid),
	}
	for id, p := range entries {
		if len(p) != dims || !p.Finite() {
			continue
		}
		ix.order[id] = len(ix.ids)
		ix.ids = append(ix.ids, id)
		ix.points = append(ix.points, p.Clone())
	}
	return ix
}

func (ix *ProximityIndex) Len() int  { return len(ix.ids) }
func (ix *ProximityIndex) Dims() int { return ix.dims }

// Position returns the snapshot position of id.
func (ix *ProximityIndex) Position(id ecs.EntityID) (mathx.Point, bool) {
	i, ok := ix.order[id]
	if !ok {
		return nil, false
	}
	return ix.points[i], true
}

// PairsWithin lazily yields every unordered pair (a, b), a != b, whose
// distance is <= r. Each pair appears once with a before b in snapshot
// order; pairs are sorted by a's then b's snapshot position.
func (ix *ProximityIndex) PairsWithin(r float64) iter.Seq2[ecs.EntityID, ecs.EntityID] {
	return func(yield func(ecs.EntityID, ecs.EntityID) bool) {
		if !(r >= 0) || len(ix.ids) < 2 {
			return
		}
		g := ix.grid(r)
		if !g.ok {
			ix.pairsBrute(r, yield)
			return
		}
		var cand []int
		for i, p := range ix.points {
			cand = ix.around(g, cellSide(r), p, cand[:0])
			for _, j := range cand {
				if j <= i {
					continue
				}
				if mathx.Distance(p, ix.points[j]) <= r {
					if !yield(ix.ids[i], ix.ids[j]) {
						return
					}
				}
			}
		}
	}
}

// Within returns the ids whose snapshot position is within r of p,
// boundary inclusive, in snapshot order.
func (ix *ProximityIndex) Within(p mathx.Point, r float64) []ecs.EntityID {
	if !(r >= 0) || len(p) != ix.dims || !p.Finite() || len(ix.ids) == 0 {
		return nil
	}
	g := ix.grid(r)
	var out []ecs.EntityID
	if !g.ok || !inGrid(p, cellSide(r)) {
		for i, q := range ix.points {
			if mathx.Distance(p, q) <= r {
				out = append(out, ix.ids[i])
			}
		}
		return out
	}
	for _, j := range ix.around(g, cellSide(r), p, nil) {
		if mathx.Distance(p, ix.points[j]) <= r {
			out = append(out, ix.ids[j])
		}
	}
	return out
}

// pairsBrute is the reference O(n²) pair scan.
func (ix *ProximityIndex) pairsBrute(r float64, yield func(ecs.EntityID, ecs.EntityID) bool) {
	for i := 0; i < len(ix.points); i++ {
		for j := i + 1; j < len(ix.points); j++ {
			if mathx.Distance(ix.points[i], ix.points[j]) <= r {
				if !yield(ix.ids[i], ix.ids[j]) {
					return
				}
			}
		}
	}
}

// cellSide picks the grid cell for radius r, slightly enlarged so rounding in
// the division can never push two points within r more than one cell apart.
// A zero radius only matches coincident points, which share a cell for any
// positive side.
func cellSide(r float64) float64 {
	if r == 0 {
		return 1
	}
	return r * (1 + 1e-9)
}

func toCell(v, side float64) int64 {
	return int64(math.Floor(v / side))
}

func inGrid(p mathx.Point, side float64) bool {
	for _, v := range p {
		c := math.Floor(v / side)
		if math.IsInf(c, 0) || math.IsNaN(c) || c > maxCellCoord || c < -maxCellCoord {
			return false
		}
	}
	return true
}

func (ix *ProximityIndex) keyOf(p mathx.Point, side float64) cellKey {
	var k cellKey
	for d := 0; d < ix.dims && d < len(k); d++ {
		k[d] = toCell(p[d], side)
	}
	return k
}

func (ix *ProximityIndex) grid(r float64) *cellGrid {
	side := cellSide(r)
	if g, ok := ix.grids[side]; ok {
		return g
	}
	g := &cellGrid{cells: make(map[cellKey][]int), ok: ix.dims <= len(cellKey{})}
	if g.ok {
		for i, p := range ix.points {
			if !inGrid(p, side) {
				g.ok = false
				break
			}
			k := ix.keyOf(p, side)
			g.cells[k] = append(g.cells[k], i)
		}
	}
	ix.grids[side] = g
	return g
}

// around appends the snapshot positions stored in the 3^N cells surrounding
// p to dst, sorted ascending.
func (ix *ProximityIndex) around(g *cellGrid, side float64, p mathx.Point, dst []int) []int {
	base := ix.keyOf(p, side)
	var walk func(d int, k cellKey)
	walk = func(d int, k cellKey) {
		if d == ix.dims {
			dst = append(dst, g.cells[k]...)
			return
		}
		for off := int64(-1); off <= 1; off++ {
			k[d] = base[d] + off
			walk(d+1, k)
		}
	}
	walk(0, base)
	slices.Sort(dst)
	return dst
}
