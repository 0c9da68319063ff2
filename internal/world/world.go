package world

import (
	"fmt"
	"iter"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sekai/sekai/internal/core/ecs"
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
)

// World owns every entity of one simulation run and advances them one tick
// at a time. It is parameterized over exactly one message payload type.
// Accessed only from one goroutine; behaviors never see the World itself.
type World[M any] struct {
	dims int
	opts options[M]
	log  *zap.Logger

	store     *ecs.Store[*record[M]]
	positions *ecs.Table[mathx.Point]
	tables    ecs.Tables
	lifecycle *ecs.Lifecycle[*record[M]]
	bus       *event.Bus[M]

	tick   uint64
	phase  Phase
	index  *ProximityIndex
	ctxs   map[ecs.EntityID]*Context[M]
	report *TickReport
}

// New creates an empty World in dims dimensions (1 to MaxDimensions).
func New[M any](dims int, opts ...Option[M]) (*World[M], error) {
	if dims < 1 || dims > MaxDimensions {
		return nil, fmt.Errorf("dimensionality %d not in [1,%d]: %w", dims, MaxDimensions, ErrConfiguration)
	}
	o := options[M]{log: zap.NewNop()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&o)
		if o.err != nil {
			return nil, o.err
		}
	}

	w := &World[M]{
		dims:      dims,
		opts:      o,
		log:       o.log,
		store:     ecs.NewStore[*record[M]](),
		positions: ecs.NewTable[mathx.Point](),
		lifecycle: ecs.NewLifecycle[*record[M]](),
		bus:       event.NewBus[M](),
	}
	w.tables = ecs.Tables{w.positions}
	w.index = BuildProximityIndex(dims, w.snapshot())
	return w, nil
}

func (w *World[M]) Dims() int    { return w.dims }
func (w *World[M]) Ticks() uint64 { return w.tick }
func (w *World[M]) Phase() Phase  { return w.phase }

// NumEntities is the number of live entities.
func (w *World[M]) NumEntities() int { return w.store.Len() }

// Alive reports whether id names a live entity.
func (w *World[M]) Alive(id ecs.EntityID) bool { return w.store.Alive(id) }

// IDs returns the live ids in insertion order.
func (w *World[M]) IDs() []ecs.EntityID { return w.store.IDs() }

// Position returns the current position of id, nil for non-spatial entities.
func (w *World[M]) Position(id ecs.EntityID) (mathx.Point, error) {
	if !w.store.Alive(id) {
		return nil, fmt.Errorf("position of %d: %w", id, ErrUnknownEntity)
	}
	p, _ := w.positions.Get(id)
	return p.Clone(), nil
}

// Behavior returns the behavior of id for read-only inspection by drivers
// and tests.
func (w *World[M]) Behavior(id ecs.EntityID) (Behavior[M], bool) {
	rec, ok := w.store.Get(id)
	if !ok {
		return nil, false
	}
	return rec.behavior, true
}

// Proximity returns the snapshot built during the last tick.
func (w *World[M]) Proximity() *ProximityIndex { return w.index }

// Spawn adds a non-spatial entity. Must not be called during a tick, and
// panics on a nil behavior.
func (w *World[M]) Spawn(b Behavior[M]) ecs.EntityID {
	w.mustBeIdle("Spawn")
	if b == nil {
		panic("world: Spawn with nil behavior")
	}
	return w.store.Insert(&record[M]{behavior: b})
}

// SpawnAt adds an entity at position p.
func (w *World[M]) SpawnAt(b Behavior[M], p mathx.Point) (ecs.EntityID, error) {
	w.mustBeIdle("SpawnAt")
	if b == nil {
		return ecs.NoEntity, fmt.Errorf("spawn at %v: nil behavior", p)
	}
	if len(p) != w.dims || !p.Finite() {
		return ecs.NoEntity, fmt.Errorf("spawn at %v in %d dimensions: %w", p, w.dims, ErrDimension)
	}
	id := w.store.Insert(&record[M]{behavior: b})
	w.positions.Set(id, p.Clone())
	return id, nil
}

// Despawn removes id immediately. Unknown ids return ErrUnknownEntity.
func (w *World[M]) Despawn(id ecs.EntityID) error {
	w.mustBeIdle("Despawn")
	if _, ok := w.store.Remove(id); !ok {
		return fmt.Errorf("despawn %d: %w", id, ErrUnknownEntity)
	}
	w.tables.Drop(id)
	return nil
}

// Emit queues an external message for the next tick's dispatch phase.
// Envelopes that could never be routed are rejected here.
func (w *World[M]) Emit(env event.Envelope[M]) error {
	if err := w.checkEnvelope(env); err != nil {
		return fmt.Errorf("emit: %w", err)
	}
	w.bus.Post(env)
	return nil
}

// checkEnvelope reports why env cannot be routed in this world, if at all.
func (w *World[M]) checkEnvelope(env event.Envelope[M]) error {
	msg := env.Message
	if msg.Position != nil && (len(msg.Position) != w.dims || !msg.Position.Finite()) {
		return fmt.Errorf("message position %v in %d dimensions: %w", msg.Position, w.dims, ErrDimension)
	}
	switch env.Scope {
	case event.ScopeBroadcast, event.ScopeTargets:
	case event.ScopeProximity:
		if msg.Position == nil {
			return fmt.Errorf("proximity message without position: %w", ErrInvalidMessage)
		}
		if !(msg.Radius >= 0) {
			return fmt.Errorf("proximity radius %v: %w", msg.Radius, ErrInvalidMessage)
		}
	default:
		return fmt.Errorf("scope %s: %w", env.Scope, ErrInvalidMessage)
	}
	return nil
}

// Broadcast delivers payload to every live entity right away, in store
// order. Lifecycle requests and faults raised by the receivers are applied
// before it returns.
func (w *World[M]) Broadcast(payload M) *TickReport {
	w.mustBeIdle("Broadcast")
	w.beginCycle()
	w.phase = PhaseDispatching
	msg := event.Message[M]{Payload: payload, Origin: ecs.NoEntity}
	w.report.Messages++
	w.report.Delivered += w.bus.Broadcast(msg, tickDirectory[M]{w}, w.deliver)
	w.reconcile()
	return w.endCycle()
}

// Tick advances the simulation by exactly one step.
func (w *World[M]) Tick() *TickReport {
	w.mustBeIdle("Tick")
	w.tick++
	w.beginCycle()

	fresh := w.update()

	w.phase = PhaseIndexing
	w.index = BuildProximityIndex(w.dims, w.snapshotStart())

	w.phase = PhaseDispatching
	w.bus.Swap()
	carried := w.bus.Pending()
	w.dispatch(carried, fresh)

	w.reconcile()
	rep := w.endCycle()
	w.log.Debug("tick complete",
		zap.Uint64("tick", rep.Tick),
		zap.Int("entities", w.store.Len()),
		zap.Int("messages", rep.Messages),
		zap.Int("delivered", rep.Delivered),
		zap.Int("faults", len(rep.Faults)),
	)
	return rep
}

func (w *World[M]) mustBeIdle(op string) {
	if w.phase != PhaseIdle {
		panic(fmt.Sprintf("world: %s called during %s phase", op, w.phase))
	}
}

func (w *World[M]) beginCycle() {
	w.ctxs = make(map[ecs.EntityID]*Context[M], w.store.Len())
	w.report = &TickReport{Tick: w.tick}
}

func (w *World[M]) endCycle() *TickReport {
	rep := w.report
	w.report = nil
	w.ctxs = nil
	w.phase = PhaseIdle
	return rep
}

// snapshot yields current positions in store order.
func (w *World[M]) snapshot() iter.Seq2[ecs.EntityID, mathx.Point] {
	return func(yield func(ecs.EntityID, mathx.Point) bool) {
		for id := range w.store.All() {
			p, ok := w.positions.Get(id)
			if !ok {
				continue
			}
			if !yield(id, p) {
				return
			}
		}
	}
}

// snapshotStart yields the tick-start positions recorded in each context.
func (w *World[M]) snapshotStart() iter.Seq2[ecs.EntityID, mathx.Point] {
	return func(yield func(ecs.EntityID, mathx.Point) bool) {
		for id := range w.store.All() {
			ctx, ok := w.ctxs[id]
			if !ok || ctx.origin == nil {
				continue
			}
			if !yield(id, ctx.origin) {
				return
			}
		}
	}
}

// contextFor returns the entity's context for the current cycle.
func (w *World[M]) contextFor(id ecs.EntityID) *Context[M] {
	if ctx, ok := w.ctxs[id]; ok {
		return ctx
	}
	p, _ := w.positions.Get(id)
	ctx := newContext[M](id, w.tick, w.dims, p.Clone(), w.opts.seed)
	w.ctxs[id] = ctx
	return ctx
}

// update runs every live entity's Update and returns their outgoing
// envelopes in store order.
func (w *World[M]) update() []event.Envelope[M] {
	w.phase = PhaseUpdating
	ids := w.store.IDs()
	ctxs := make([]*Context[M], len(ids))
	recs := make([]*record[M], len(ids))
	for i, id := range ids {
		ctxs[i] = w.contextFor(id)
		ctxs[i].phase = PhaseUpdating
		recs[i], _ = w.store.Get(id)
	}

	errs := make([]error, len(ids))
	if w.opts.workers > 1 {
		var g errgroup.Group
		g.SetLimit(w.opts.workers)
		for i := range ids {
			g.Go(func() error {
				errs[i] = invoke(func() error { return recs[i].behavior.Update(ctxs[i]) })
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range ids {
			errs[i] = invoke(func() error { return recs[i].behavior.Update(ctxs[i]) })
		}
	}

	var fresh []event.Envelope[M]
	for i, id := range ids {
		w.report.Updated++
		if errs[i] != nil {
			w.fault(id, ctxs[i], PhaseUpdating, errs[i])
			continue
		}
		fresh = append(fresh, ctxs[i].takeOutbox()...)
		w.applyMove(id, ctxs[i])
	}
	return fresh
}

// invoke runs fn, turning a panic into a PanicError.
func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}

func (w *World[M]) applyMove(id ecs.EntityID, ctx *Context[M]) {
	if ctx.moved == nil {
		return
	}
	w.positions.Set(id, ctx.moved)
	ctx.current = ctx.moved
	ctx.moved = nil
}

func (w *World[M]) fault(id ecs.EntityID, ctx *Context[M], phase Phase, err error) {
	ctx.discard()
	f := &Fault{ID: id, Tick: w.tick, Phase: phase, Err: err}
	w.report.Faults = append(w.report.Faults, f)
	w.log.Warn("entity fault",
		zap.Uint64("entity", uint64(id)),
		zap.Uint64("tick", w.tick),
		zap.Stringer("phase", phase),
		zap.Error(err),
	)
}

// deliver is the bus handler: it runs Receive for one live entity.
func (w *World[M]) deliver(id ecs.EntityID, msg event.Message[M]) {
	rec, ok := w.store.Get(id)
	if !ok {
		return
	}
	ctx := w.contextFor(id)
	ctx.phase = PhaseDispatching
	if err := invoke(func() error { return rec.behavior.Receive(ctx, msg) }); err != nil {
		w.fault(id, ctx, PhaseDispatching, err)
		return
	}
	// Messages sent while receiving go out next tick.
	for _, env := range ctx.takeOutbox() {
		w.bus.Post(env)
	}
	w.applyMove(id, ctx)
}

// dispatch delivers carried-over envelopes, then this tick's, in order.
func (w *World[M]) dispatch(lists ...[]event.Envelope[M]) {
	dir := tickDirectory[M]{w}
	var pooled map[ecs.EntityID][]event.Message[M]
	if w.opts.coalesce != nil {
		pooled = make(map[ecs.EntityID][]event.Message[M])
	}

	for _, list := range lists {
		for _, env := range list {
			msg := env.Message
			if w.faulted(msg.Origin) {
				w.report.drop(msg.Origin, env.Scope, ErrEntityFault)
				continue
			}
			if err := w.checkEnvelope(env); err != nil {
				w.report.drop(msg.Origin, env.Scope, err)
				continue
			}
			w.report.Messages++
			switch env.Scope {
			case event.ScopeBroadcast:
				w.report.Delivered += w.bus.Broadcast(msg, dir, w.deliver)
			case event.ScopeTargets:
				n, skipped := w.bus.DeliverTo(msg, env.Targets, dir, w.deliver)
				w.report.Delivered += n
				for _, id := range skipped {
					w.report.skip(id, msg.Origin, env.Scope)
				}
			case event.ScopeProximity:
				targets := w.proximityTargets(msg)
				if pooled != nil {
					for _, id := range targets {
						pooled[id] = append(pooled[id], msg)
					}
					continue
				}
				n, skipped := w.bus.DeliverTo(msg, targets, dir, w.deliver)
				w.report.Delivered += n
				for _, id := range skipped {
					w.report.skip(id, msg.Origin, env.Scope)
				}
			}
		}
	}

	if len(pooled) == 0 {
		return
	}
	for _, id := range w.store.IDs() {
		msgs, ok := pooled[id]
		if !ok {
			continue
		}
		// senders that faulted after their message was pooled
		msgs = slices.DeleteFunc(msgs, func(m event.Message[M]) bool {
			if !w.faulted(m.Origin) {
				return false
			}
			w.report.Skipped = append(w.report.Skipped, Skip{Target: id, Origin: m.Origin, Scope: event.ScopeProximity, Err: ErrEntityFault})
			return true
		})
		if len(msgs) == 0 {
			continue
		}
		msg := w.combine(msgs)
		n, skipped := w.bus.DeliverTo(msg, []ecs.EntityID{id}, dir, w.deliver)
		w.report.Delivered += n
		for _, sid := range skipped {
			w.report.skip(sid, msg.Origin, event.ScopeProximity)
		}
	}
}

// proximityTargets resolves a position-tagged message against the
// tick-start snapshot, excluding its sender.
func (w *World[M]) proximityTargets(msg event.Message[M]) []ecs.EntityID {
	if !msg.Spatial() {
		return nil
	}
	near := w.index.Within(msg.Position, msg.Radius)
	out := near[:0]
	for _, id := range near {
		if id != msg.Origin {
			out = append(out, id)
		}
	}
	return out
}

func (w *World[M]) combine(msgs []event.Message[M]) event.Message[M] {
	if len(msgs) == 1 {
		return msgs[0]
	}
	payloads := make([]M, len(msgs))
	points := make([]mathx.Point, len(msgs))
	radius := 0.0
	for i, m := range msgs {
		payloads[i] = m.Payload
		points[i] = m.Position
		radius = max(radius, m.Radius)
	}
	return event.Message[M]{
		Payload:  w.opts.coalesce(payloads),
		Origin:   ecs.NoEntity,
		Position: mathx.Mean(points),
		Radius:   radius,
	}
}

// reconcile applies buffered births and deaths, then removes faulted
// entities.
func (w *World[M]) reconcile() {
	w.phase = PhaseReconciling
	for _, id := range w.store.IDs() {
		ctx, ok := w.ctxs[id]
		if !ok {
			continue
		}
		switch {
		case ctx.faulted:
			w.lifecycle.QueueDeath(id)
		case ctx.lifecycle == lifecycleDeath:
			w.lifecycle.QueueDeath(id)
		case ctx.lifecycle == lifecycleBirth:
			w.lifecycle.QueueBirth(ctx.child)
		}
	}

	res := w.lifecycle.Flush(w.store, w.tables)
	for _, id := range res.Born {
		rec, _ := w.store.Get(id)
		if rec.spawnPos != nil {
			w.positions.Set(id, rec.spawnPos)
			rec.spawnPos = nil
		}
	}
	w.report.Spawned = append(w.report.Spawned, res.Born...)
	w.report.Despawned = append(w.report.Despawned, res.DiedIDs...)
	for _, id := range res.Missing {
		w.report.skip(id, ecs.NoEntity, event.ScopeTargets)
	}
}

// faulted reports whether id faulted earlier in the current cycle.
func (w *World[M]) faulted(id ecs.EntityID) bool {
	ctx, ok := w.ctxs[id]
	return ok && ctx.faulted
}

// tickDirectory is the bus's view during a cycle: faulted entities count as
// dead for the rest of the cycle.
type tickDirectory[M any] struct {
	w *World[M]
}

func (d tickDirectory[M]) Each(fn func(ecs.EntityID) bool) { d.w.store.Each(fn) }

func (d tickDirectory[M]) Alive(id ecs.EntityID) bool {
	if !d.w.store.Alive(id) {
		return false
	}
	return !d.w.faulted(id)
}
