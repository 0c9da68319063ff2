package ecs

// EntityID is an opaque, monotonically issued identity. Ids start at 1 and are
// never reused by the issuing store, so a stale id can only ever miss.
type EntityID uint64

// NoEntity is never issued. Messages injected from outside the world carry it
// as their origin.
const NoEntity EntityID = 0

func (id EntityID) IsZero() bool { return id == 0 }

// idSequence hands out ids. Unlike a generational pool there is no free list:
// the counter only moves forward.
type idSequence struct {
	last EntityID
}

func (s *idSequence) next() EntityID {
	s.last++
	return s.last
}

// Issued reports whether id was ever handed out by this sequence.
func (s *idSequence) issued(id EntityID) bool {
	return id != NoEntity && id <= s.last
}
