package swarm

import (
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/world"
)

// Neighbor is a live cell announcing itself to the surrounding eight.
type Neighbor struct{}

// NeighborRadius reaches the diagonal neighbours of an integer grid and
// nothing further.
const NeighborRadius = 1.5

// Cell is one square of a Game of Life board (B3/S23). Dead cells stay in
// the world so they can count neighbours; only the flag changes.
//
// Each tick a cell first applies the rule to the neighbour count gathered
// during the previous tick's dispatch, then announces itself if alive. The
// first tick only announces, so generation g is visible after tick g+1.
type Cell struct {
	Alive      bool
	Generation int

	neighbors int
	primed    bool
}

func NewCell(alive bool) *Cell {
	return &Cell{Alive: alive}
}

func (c *Cell) Update(ctx *world.Context[Neighbor]) error {
	if c.primed {
		switch {
		case c.Alive && (c.neighbors < 2 || c.neighbors > 3):
			c.Alive = false
		case !c.Alive && c.neighbors == 3:
			c.Alive = true
		}
		c.Generation++
	}
	c.primed = true
	c.neighbors = 0
	if !c.Alive || ctx.Origin() == nil {
		return nil
	}
	return ctx.Emit(Neighbor{}, NeighborRadius)
}

func (c *Cell) Receive(_ *world.Context[Neighbor], _ event.Message[Neighbor]) error {
	c.neighbors++
	return nil
}
