package world

import (
	"go.uber.org/multierr"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/core/event"
)

// Skip records a delivery or removal that did not happen. Target is
// NoEntity when a whole message was dropped: its sender faulted earlier in
// the tick, or it could not be routed.
type Skip struct {
	Target ecs.EntityID
	Origin ecs.EntityID
	Scope  event.Scope
	Err    error
}

// TickReport is everything observable about one tick (or one external
// broadcast). Entity faults land here instead of escaping Tick.
type TickReport struct {
	Tick      uint64
	Updated   int
	Messages  int // envelopes dispatched
	Delivered int // Receive calls made
	Spawned   []ecs.EntityID
	Despawned []ecs.EntityID
	Skipped   []Skip
	Faults    []*Fault
}

// Err combines all faults into one error, nil when the tick was clean.
func (r *TickReport) Err() error {
	var err error
	for _, f := range r.Faults {
		err = multierr.Append(err, f)
	}
	return err
}

func (r *TickReport) skip(target, origin ecs.EntityID, scope event.Scope) {
	r.Skipped = append(r.Skipped, Skip{Target: target, Origin: origin, Scope: scope, Err: ErrUnknownEntity})
}

func (r *TickReport) drop(origin ecs.EntityID, scope event.Scope, err error) {
	r.Skipped = append(r.Skipped, Skip{Target: ecs.NoEntity, Origin: origin, Scope: scope, Err: err})
}
