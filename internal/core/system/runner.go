package system

import (
	"cmp"
	"slices"
	"time"
)

// Runner drives one loop iteration of a simulation: stimuli are queued, the
// world steps, then reporting reads the outcome. Systems of equal phase run
// in the order they were registered.
type Runner struct {
	systems []System
	dirty   bool
}

func NewRunner() *Runner {
	return &Runner{}
}

// Register adds s; it first runs on the next Tick.
func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.dirty = true
}

// Tick runs every system once, lowest phase first.
func (r *Runner) Tick(dt time.Duration) {
	for _, s := range r.ordered() {
		s.Update(dt)
	}
}

// TickPhase runs the systems of a single phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	for _, s := range r.ordered() {
		if s.Phase() == phase {
			s.Update(dt)
		}
	}
}

func (r *Runner) ordered() []System {
	if r.dirty {
		slices.SortStableFunc(r.systems, func(a, b System) int {
			return cmp.Compare(a.Phase(), b.Phase())
		})
		r.dirty = false
	}
	return r.systems
}
