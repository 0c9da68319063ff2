package ecs

// Lifecycle buffers births and deaths requested while the store is being
// iterated. Nothing touches the store until Flush.
type Lifecycle[T any] struct {
	births []T
	deaths []EntityID
}

func NewLifecycle[T any]() *Lifecycle[T] {
	return &Lifecycle[T]{
		births: make([]T, 0, 16),
		deaths: make([]EntityID, 0, 16),
	}
}

// QueueBirth schedules v for insertion at the next Flush.
func (l *Lifecycle[T]) QueueBirth(v T) {
	l.births = append(l.births, v)
}

// QueueDeath schedules id for removal at the next Flush.
func (l *Lifecycle[T]) QueueDeath(id EntityID) {
	l.deaths = append(l.deaths, id)
}

func (l *Lifecycle[T]) Pending() int { return len(l.births) + len(l.deaths) }

// FlushResult describes what a Flush actually changed.
type FlushResult[T any] struct {
	Born    []EntityID
	Died    []T
	DiedIDs []EntityID
	Missing []EntityID // deaths queued for ids that were already gone
}

// Flush applies queued deaths first, then births in request order. tables,
// if non-nil, drops every removed id. Queues are reset afterwards.
func (l *Lifecycle[T]) Flush(s *Store[T], tables Dropper) FlushResult[T] {
	var res FlushResult[T]
	for _, id := range l.deaths {
		v, ok := s.Remove(id)
		if !ok {
			res.Missing = append(res.Missing, id)
			continue
		}
		if tables != nil {
			tables.Drop(id)
		}
		res.Died = append(res.Died, v)
		res.DiedIDs = append(res.DiedIDs, id)
	}
	for _, v := range l.births {
		res.Born = append(res.Born, s.Insert(v))
	}
	var zero T
	for i := range l.births {
		l.births[i] = zero
	}
	l.births = l.births[:0]
	l.deaths = l.deaths[:0]
	return res
}
