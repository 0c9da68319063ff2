package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekai/sekai/internal/core/ecs"
)

type note struct{ Text string }

func newDirectory(n int) (*ecs.Store[int], []ecs.EntityID) {
	s := ecs.NewStore[int]()
	ids := make([]ecs.EntityID, 0, n)
	for i := 0; i < n; i++ {
		ids = append(ids, s.Insert(i))
	}
	return s, ids
}

func TestBroadcastReachesEveryLiveEntityInOrder(t *testing.T) {
	dir, ids := newDirectory(6)
	dir.Remove(ids[2])
	bus := NewBus[note]()

	var got []ecs.EntityID
	n := bus.Broadcast(Message[note]{Payload: note{"hi"}}, dir, func(id ecs.EntityID, msg Message[note]) {
		assert.Equal(t, "hi", msg.Payload.Text)
		got = append(got, id)
	})

	assert.Equal(t, 5, n)
	assert.Equal(t, []ecs.EntityID{ids[0], ids[1], ids[3], ids[4], ids[5]}, got)
}

func TestBroadcastSkipsEntityRemovedMidDelivery(t *testing.T) {
	dir, ids := newDirectory(3)
	bus := NewBus[note]()

	var got []ecs.EntityID
	bus.Broadcast(Message[note]{}, dir, func(id ecs.EntityID, _ Message[note]) {
		got = append(got, id)
		if id == ids[0] {
			dir.Remove(ids[1])
		}
	})
	assert.Equal(t, []ecs.EntityID{ids[0], ids[2]}, got)
}

func TestDeliverToSkipsUnknownAndDuplicates(t *testing.T) {
	dir, ids := newDirectory(4)
	dir.Remove(ids[1])
	bus := NewBus[note]()

	var got []ecs.EntityID
	n, skipped := bus.DeliverTo(Message[note]{}, []ecs.EntityID{ids[3], ids[1], ids[0], ids[3], 999}, dir,
		func(id ecs.EntityID, _ Message[note]) {
			got = append(got, id)
		})

	assert.Equal(t, 2, n)
	assert.Equal(t, []ecs.EntityID{ids[3], ids[0]}, got)
	assert.Equal(t, []ecs.EntityID{ids[1], 999}, skipped)
}

func TestSwapRotatesBuffers(t *testing.T) {
	bus := NewBus[note]()
	bus.Post(Envelope[note]{Message: Message[note]{Payload: note{"a"}}})
	bus.Post(Envelope[note]{Message: Message[note]{Payload: note{"b"}}, Scope: ScopeTargets})
	assert.Empty(t, bus.Pending())
	assert.Equal(t, 2, bus.Queued())

	bus.Swap()
	require.Len(t, bus.Pending(), 2)
	assert.Equal(t, "a", bus.Pending()[0].Message.Payload.Text)
	assert.Equal(t, ScopeTargets, bus.Pending()[1].Scope)
	assert.Equal(t, 0, bus.Queued())

	bus.Post(Envelope[note]{Message: Message[note]{Payload: note{"c"}}})
	bus.Swap()
	require.Len(t, bus.Pending(), 1)
	assert.Equal(t, "c", bus.Pending()[0].Message.Payload.Text)

	bus.Swap()
	assert.Empty(t, bus.Pending())
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "broadcast", ScopeBroadcast.String())
	assert.Equal(t, "proximity", ScopeProximity.String())
	assert.Equal(t, "unknown", Scope(9).String())
}
