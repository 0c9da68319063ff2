package ecs

// Table holds an optional per-entity value kept outside the entity store,
// such as a position. Entities without a row have no value.
type Table[T any] struct {
	rows map[EntityID]T
}

func NewTable[T any]() *Table[T] {
	return &Table[T]{rows: make(map[EntityID]T)}
}

func (t *Table[T]) Set(id EntityID, v T) { t.rows[id] = v }

// Get returns id's row and whether it has one.
func (t *Table[T]) Get(id EntityID) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *Table[T]) Has(id EntityID) bool {
	_, ok := t.rows[id]
	return ok
}

// Drop deletes id's row, if any.
func (t *Table[T]) Drop(id EntityID) { delete(t.rows, id) }

func (t *Table[T]) Len() int { return len(t.rows) }

// Dropper is per-entity state that must go when its entity despawns.
type Dropper interface {
	Drop(id EntityID)
}

// Tables groups the droppers that belong to one store so a despawn clears
// them together.
type Tables []Dropper

func (ts Tables) Drop(id EntityID) {
	for _, t := range ts {
		t.Drop(id)
	}
}
