package world

import (
	"errors"
	"fmt"

	"github.com/sekai/sekai/internal/core/ecs"
)

var (
	// ErrUnknownEntity signals an id that is dead or was never issued.
	// Callers treat it as a no-op signal, not a failure.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrEntityFault marks a behavior that failed in Update or Receive.
	ErrEntityFault = errors.New("entity fault")
	// ErrConfiguration is returned by New for invalid settings.
	ErrConfiguration = errors.New("invalid world configuration")
	// ErrDimension is returned when a position does not match the world.
	ErrDimension = errors.New("position dimensionality mismatch")
	// ErrLifecycleRequested is returned when an entity asks for a second
	// birth or death in the same tick.
	ErrLifecycleRequested = errors.New("lifecycle request already made this tick")
	// ErrNotSpatial is returned when a non-spatial entity emits a
	// proximity-scoped message without an explicit position.
	ErrNotSpatial = errors.New("entity has no position")
	// ErrInvalidMessage is returned for envelopes that cannot be routed:
	// an unknown scope, or a proximity message without a usable position
	// or radius.
	ErrInvalidMessage = errors.New("invalid message")
)

// Fault records one behavior failure. It matches both ErrEntityFault and the
// underlying cause under errors.Is.
type Fault struct {
	ID    ecs.EntityID
	Tick  uint64
	Phase Phase
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("entity %d faulted in %s at tick %d: %v", f.ID, f.Phase, f.Tick, f.Err)
}

func (f *Fault) Unwrap() []error { return []error{ErrEntityFault, f.Err} }

// PanicError wraps a value recovered from a panicking behavior.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string { return fmt.Sprintf("panic: %v", p.Value) }
