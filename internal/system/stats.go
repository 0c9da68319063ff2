package system

import (
	"github.com/sekai/sekai/internal/world"
)

// Stats accumulates tick reports. StepSystem and StimulusSystem write it
// and ReportSystem reads it; all run on the loop goroutine.
type Stats struct {
	Ticks     uint64
	Messages  int
	Delivered int
	Spawned   int
	Despawned int
	Skipped   int
	Faults    int
	Rejected  int // stimuli refused by the world
	Last      *world.TickReport
}

// Add folds one report into the totals.
func (s *Stats) Add(rep *world.TickReport) {
	s.Ticks = rep.Tick
	s.Messages += rep.Messages
	s.Delivered += rep.Delivered
	s.Spawned += len(rep.Spawned)
	s.Despawned += len(rep.Despawned)
	s.Skipped += len(rep.Skipped)
	s.Faults += len(rep.Faults)
	s.Last = rep
}
