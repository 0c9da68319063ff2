package system

import (
	"time"

	coresys "github.com/sekai/sekai/internal/core/system"
	"github.com/sekai/sekai/internal/world"
)

// StepSystem advances the world by one tick.
// Phase 1 (Step).
type StepSystem[M any] struct {
	world *world.World[M]
	stats *Stats
}

func NewStepSystem[M any](w *world.World[M], stats *Stats) *StepSystem[M] {
	return &StepSystem[M]{world: w, stats: stats}
}

func (s *StepSystem[M]) Phase() coresys.Phase { return coresys.PhaseStep }

func (s *StepSystem[M]) Update(_ time.Duration) {
	s.stats.Add(s.world.Tick())
}
