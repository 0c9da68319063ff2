package swarm

import (
	"fmt"
	"strings"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/world"
)

// Board maps grid coordinates to the cells spawned for them.
type Board struct {
	Width, Height int
	ids           []ecs.EntityID
	cells         []*Cell
}

// NewBoard fills a 2D world with width×height cells; live lists the
// initially alive coordinates as {x, y}.
func NewBoard(w *world.World[Neighbor], width, height int, live [][2]int) (*Board, error) {
	if w.Dims() != 2 {
		return nil, fmt.Errorf("board needs a 2D world, got %dD", w.Dims())
	}
	alive := make(map[[2]int]bool, len(live))
	for _, xy := range live {
		alive[xy] = true
	}
	b := &Board{Width: width, Height: height}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := NewCell(alive[[2]int{x, y}])
			id, err := w.SpawnAt(c, mathx.Point{float64(x), float64(y)})
			if err != nil {
				return nil, fmt.Errorf("spawn cell %d,%d: %w", x, y, err)
			}
			b.ids = append(b.ids, id)
			b.cells = append(b.cells, c)
		}
	}
	return b, nil
}

func (b *Board) At(x, y int) *Cell { return b.cells[y*b.Width+x] }

func (b *Board) Population() int {
	n := 0
	for _, c := range b.cells {
		if c.Alive {
			n++
		}
	}
	return n
}

// String renders the board with '#' for live cells.
func (b *Board) String() string {
	var sb strings.Builder
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.At(x, y).Alive {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
