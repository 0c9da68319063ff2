package ecs

import "iter"

type slot[T any] struct {
	id   EntityID
	val  T
	live bool
}

// Store owns entity records keyed by id and preserves insertion order.
// Removal tombstones the slot; compaction later squeezes tombstones out
// without reordering survivors, so no other id changes meaning.
// Not safe for concurrent mutation.
type Store[T any] struct {
	ids   idSequence
	slots []slot[T]
	index map[EntityID]int // id → slot position
	dead  int
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		slots: make([]slot[T], 0, 256),
		index: make(map[EntityID]int, 256),
	}
}

// Insert allocates the next id and stores v under it.
func (s *Store[T]) Insert(v T) EntityID {
	id := s.ids.next()
	s.index[id] = len(s.slots)
	s.slots = append(s.slots, slot[T]{id: id, val: v, live: true})
	return id
}

// Remove deletes id and returns its record. Unknown or already removed ids
// return false.
func (s *Store[T]) Remove(id EntityID) (T, bool) {
	pos, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	v := s.slots[pos].val
	var zero T
	s.slots[pos] = slot[T]{id: id, val: zero}
	delete(s.index, id)
	s.dead++
	if s.dead > 32 && s.dead*2 > len(s.slots) {
		s.compact()
	}
	return v, true
}

func (s *Store[T]) Get(id EntityID) (T, bool) {
	pos, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.slots[pos].val, true
}

func (s *Store[T]) Alive(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

// Issued reports whether id was ever allocated by this store, alive or not.
func (s *Store[T]) Issued(id EntityID) bool { return s.ids.issued(id) }

func (s *Store[T]) Len() int { return len(s.index) }

// All yields live records in insertion order. The sequence is restartable.
// Callers must not remove while iterating; collect first, then apply.
func (s *Store[T]) All() iter.Seq2[EntityID, T] {
	return func(yield func(EntityID, T) bool) {
		for i := 0; i < len(s.slots); i++ {
			sl := s.slots[i]
			if !sl.live {
				continue
			}
			if !yield(sl.id, sl.val) {
				return
			}
		}
	}
}

// IDs returns a snapshot of the live ids in insertion order.
func (s *Store[T]) IDs() []EntityID {
	out := make([]EntityID, 0, s.Len())
	for id := range s.All() {
		out = append(out, id)
	}
	return out
}

// Each visits live ids in insertion order until fn returns false.
func (s *Store[T]) Each(fn func(EntityID) bool) {
	for id := range s.All() {
		if !fn(id) {
			return
		}
	}
}

func (s *Store[T]) compact() {
	kept := s.slots[:0]
	for _, sl := range s.slots {
		if sl.live {
			s.index[sl.id] = len(kept)
			kept = append(kept, sl)
		}
	}
	var zero slot[T]
	for i := len(kept); i < len(s.slots); i++ {
		s.slots[i] = zero
	}
	s.slots = kept
	s.dead = 0
}
