package event

import (
	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/mathx"
)

// Message is an immutable value delivered to behaviors. Position, when set,
// is where the message was emitted; proximity is always measured from it.
type Message[M any] struct {
	Payload  M
	Origin   ecs.EntityID
	Position mathx.Point
	Radius   float64
}

// Spatial reports whether the message carries a position.
func (m Message[M]) Spatial() bool { return m.Position != nil }

// Scope selects how a queued message resolves its recipients.
type Scope uint8

const (
	ScopeBroadcast Scope = iota // every live entity
	ScopeTargets                // listed ids only
	ScopeProximity              // entities within Radius of Position
)

func (s Scope) String() string {
	switch s {
	case ScopeBroadcast:
		return "broadcast"
	case ScopeTargets:
		return "targets"
	case ScopeProximity:
		return "proximity"
	}
	return "unknown"
}

// Envelope is a queued message plus its delivery scope.
type Envelope[M any] struct {
	Message Message[M]
	Scope   Scope
	Targets []ecs.EntityID
}
