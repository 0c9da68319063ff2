package world

import (
	"fmt"
	"math/rand"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
)

// Behavior is the per-entity logic plugged into a World. A behavior owns
// only its own state; every cross-entity effect goes through the Context.
// A returned error or a panic is an entity fault: the entity is removed at
// the end of the tick and the rest of the tick carries on.
type Behavior[M any] interface {
	Update(ctx *Context[M]) error
	Receive(ctx *Context[M], msg event.Message[M]) error
}

// record is the stored entity: its behavior plus, for births, where it
// should appear. Current positions live in the World's position table.
type record[M any] struct {
	behavior Behavior[M]
	spawnPos mathx.Point
}

type lifecycleKind uint8

const (
	lifecycleNone lifecycleKind = iota
	lifecycleBirth
	lifecycleDeath
)

// Context is an entity's handle on the world for one tick. Requests made
// through it are buffered and applied by the World between phases.
type Context[M any] struct {
	id      ecs.EntityID
	tick    uint64
	dims    int
	phase   Phase
	origin  mathx.Point // position at tick start
	current mathx.Point // position including applied moves
	moved   mathx.Point // pending move, nil when none
	seed    int64
	rng     *rand.Rand

	out       []event.Envelope[M]
	lifecycle lifecycleKind
	child     *record[M]
	faulted   bool
}

func newContext[M any](id ecs.EntityID, tick uint64, dims int, pos mathx.Point, seed int64) *Context[M] {
	return &Context[M]{
		id:      id,
		tick:    tick,
		dims:    dims,
		origin:  pos,
		current: pos,
		seed:    seed,
	}
}

func (c *Context[M]) ID() ecs.EntityID { return c.id }
func (c *Context[M]) Tick() uint64     { return c.tick }
func (c *Context[M]) Dims() int        { return c.dims }
func (c *Context[M]) Phase() Phase     { return c.phase }

// Origin is the entity's position at the start of the tick, nil for
// non-spatial entities. Proximity decisions for the whole tick use it.
func (c *Context[M]) Origin() mathx.Point { return c.origin.Clone() }

// Position is the entity's latest position including its own pending move.
func (c *Context[M]) Position() mathx.Point {
	if c.moved != nil {
		return c.moved.Clone()
	}
	return c.current.Clone()
}

// SetPosition moves the entity. The move becomes visible to other entities
// only through the next tick's snapshot.
func (c *Context[M]) SetPosition(p mathx.Point) error {
	if len(p) != c.dims {
		return fmt.Errorf("set position %v: %w", p, ErrDimension)
	}
	if !p.Finite() {
		return fmt.Errorf("set position %v: non-finite coordinate", p)
	}
	c.moved = p.Clone()
	return nil
}

// Translate moves the entity by delta from its latest position.
func (c *Context[M]) Translate(delta mathx.Point) error {
	cur := c.Position()
	if cur == nil {
		return fmt.Errorf("translate: %w", ErrNotSpatial)
	}
	if len(delta) != c.dims {
		return fmt.Errorf("translate by %v: %w", delta, ErrDimension)
	}
	return c.SetPosition(mathx.Add(cur, delta))
}

// Rand returns a generator seeded from the world seed, tick and entity id,
// so results do not depend on scheduling order.
func (c *Context[M]) Rand() *rand.Rand {
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(c.seed ^ int64(c.tick)<<20 ^ int64(c.id)))
	}
	return c.rng
}

func (c *Context[M]) message(payload M) event.Message[M] {
	return event.Message[M]{Payload: payload, Origin: c.id, Position: c.origin.Clone()}
}

// Broadcast queues payload for every live entity, the sender included.
func (c *Context[M]) Broadcast(payload M) {
	c.out = append(c.out, event.Envelope[M]{Message: c.message(payload), Scope: event.ScopeBroadcast})
}

// SendTo queues payload for the listed ids. Dead ids are skipped at
// delivery and show up in the tick report.
func (c *Context[M]) SendTo(payload M, ids ...ecs.EntityID) {
	targets := make([]ecs.EntityID, len(ids))
	copy(targets, ids)
	c.out = append(c.out, event.Envelope[M]{Message: c.message(payload), Scope: event.ScopeTargets, Targets: targets})
}

// Emit queues payload for every other entity within radius of the sender's
// tick-start position.
func (c *Context[M]) Emit(payload M, radius float64) error {
	if c.origin == nil {
		return fmt.Errorf("emit: %w", ErrNotSpatial)
	}
	return c.EmitAt(payload, c.origin, radius)
}

// EmitAt queues payload tagged with position p; recipients are the other
// entities within radius of p.
func (c *Context[M]) EmitAt(payload M, p mathx.Point, radius float64) error {
	if len(p) != c.dims {
		return fmt.Errorf("emit at %v: %w", p, ErrDimension)
	}
	if !(radius >= 0) {
		return fmt.Errorf("emit: radius %v: %w", radius, ErrInvalidMessage)
	}
	msg := event.Message[M]{Payload: payload, Origin: c.id, Position: p.Clone(), Radius: radius}
	c.out = append(c.out, event.Envelope[M]{Message: msg, Scope: event.ScopeProximity})
	return nil
}

// Spawn requests a new entity at p (nil for non-spatial). It is inserted
// after message dispatch and first updates on the next tick.
func (c *Context[M]) Spawn(b Behavior[M], p mathx.Point) error {
	if c.lifecycle != lifecycleNone {
		return ErrLifecycleRequested
	}
	if b == nil {
		return fmt.Errorf("spawn: nil behavior")
	}
	if p != nil && (len(p) != c.dims || !p.Finite()) {
		return fmt.Errorf("spawn at %v: %w", p, ErrDimension)
	}
	c.lifecycle = lifecycleBirth
	c.child = &record[M]{behavior: b, spawnPos: p.Clone()}
	return nil
}

// Die requests removal of this entity once the tick's dispatch completes.
// The entity still receives messages addressed to it this tick.
func (c *Context[M]) Die() error {
	if c.lifecycle != lifecycleNone {
		return ErrLifecycleRequested
	}
	c.lifecycle = lifecycleDeath
	return nil
}

// Dying reports whether the entity asked to die this tick.
func (c *Context[M]) Dying() bool { return c.lifecycle == lifecycleDeath }

// takeOutbox hands over and clears the buffered messages.
func (c *Context[M]) takeOutbox() []event.Envelope[M] {
	out := c.out
	c.out = nil
	return out
}

// discard drops everything the entity requested; used when it faults.
func (c *Context[M]) discard() {
	c.out = nil
	c.moved = nil
	c.lifecycle = lifecycleNone
	c.child = nil
	c.faulted = true
}
