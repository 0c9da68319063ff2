package event

import "github.com/sekai/sekai/internal/core/ecs"

// Directory is the bus's view of the entity set: iteration in store order
// and liveness checks. ecs.Store satisfies it.
type Directory interface {
	Each(fn func(ecs.EntityID) bool)
	Alive(id ecs.EntityID) bool
}

// Handler receives one message for one live entity. Delivery is synchronous:
// the bus does not call the next handler until this one returns.
type Handler[M any] func(id ecs.EntityID, msg Message[M])

// Bus is a double-buffered message queue. Envelopes posted during tick N land
// in the back buffer; Swap makes them the front buffer for dispatch.
// Single goroutine only.
type Bus[M any] struct {
	front []Envelope[M]
	back  []Envelope[M]
}

func NewBus[M any]() *Bus[M] {
	return &Bus[M]{
		front: make([]Envelope[M], 0, 64),
		back:  make([]Envelope[M], 0, 64),
	}
}

// Post queues an envelope into the back buffer.
func (b *Bus[M]) Post(env Envelope[M]) {
	b.back = append(b.back, env)
}

// Swap rotates back→front and clears the new back buffer.
func (b *Bus[M]) Swap() {
	b.front, b.back = b.back, b.front
	var zero Envelope[M]
	for i := range b.back {
		b.back[i] = zero
	}
	b.back = b.back[:0]
}

// Pending returns the front buffer. Valid until the next Swap.
func (b *Bus[M]) Pending() []Envelope[M] { return b.front }

// Queued reports how many envelopes wait in the back buffer.
func (b *Bus[M]) Queued() int { return len(b.back) }

// Broadcast hands msg to every live entity in directory order and returns
// how many received it. Liveness is rechecked per entity, so an entity that
// dies mid-broadcast is skipped.
func (b *Bus[M]) Broadcast(msg Message[M], dir Directory, h Handler[M]) int {
	var ids []ecs.EntityID
	dir.Each(func(id ecs.EntityID) bool {
		ids = append(ids, id)
		return true
	})
	n := 0
	for _, id := range ids {
		if !dir.Alive(id) {
			continue
		}
		h(id, msg)
		n++
	}
	return n
}

// DeliverTo hands msg to each listed id that is alive, in list order,
// ignoring duplicates. Ids that are not alive are returned as skipped.
func (b *Bus[M]) DeliverTo(msg Message[M], targets []ecs.EntityID, dir Directory, h Handler[M]) (int, []ecs.EntityID) {
	var skipped []ecs.EntityID
	seen := make(map[ecs.EntityID]struct{}, len(targets))
	n := 0
	for _, id := range targets {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !dir.Alive(id) {
			skipped = append(skipped, id)
			continue
		}
		h(id, msg)
		n++
	}
	return n, skipped
}
