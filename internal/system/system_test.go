package system

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sekai/sekai/internal/core/event"
	coresys "github.com/sekai/sekai/internal/core/system"
	"github.com/sekai/sekai/internal/swarm"
	"github.com/sekai/sekai/internal/world"
)

type failing struct{}

func (failing) Update(*world.Context[int]) error { return errors.New("stuck") }

func (failing) Receive(*world.Context[int], event.Message[int]) error { return nil }

func newRunner(t *testing.T, w *world.World[int], source StimulusSource[int], every uint64) (*coresys.Runner, *Stats, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	stats := &Stats{}
	r := coresys.NewRunner()
	r.Register(NewReportSystem(stats, w.NumEntities, every, zap.New(core)))
	r.Register(NewStepSystem(w, stats))
	r.Register(NewStimulusSystem(w, source, stats, zap.New(core)))
	return r, stats, logs
}

func TestStimulusReachesScheduledTick(t *testing.T) {
	w, err := world.New[int](1)
	require.NoError(t, err)
	short := swarm.NewMortal[int](3)
	long := swarm.NewMortal[int](10)
	w.Spawn(short)
	w.Spawn(long)

	var asked []uint64
	source := func(tick uint64) []event.Envelope[int] {
		asked = append(asked, tick)
		if tick != 2 {
			return nil
		}
		return []event.Envelope[int]{{Message: event.Message[int]{Payload: 42}, Scope: event.ScopeBroadcast}}
	}
	r, stats, logs := newRunner(t, w, source, 3)

	r.Tick(time.Millisecond)
	assert.Equal(t, 0, short.Received)

	r.Tick(time.Millisecond)
	assert.Equal(t, 1, short.Received)
	assert.Equal(t, 1, long.Received)

	r.Tick(time.Millisecond)
	assert.Equal(t, []uint64{1, 2, 3}, asked)
	assert.Equal(t, uint64(3), stats.Ticks)
	assert.Equal(t, 1, stats.Messages)
	assert.Equal(t, 2, stats.Delivered)
	assert.Equal(t, 1, stats.Despawned)
	assert.Equal(t, 1, w.NumEntities())

	progress := logs.FilterMessage("simulation progress").All()
	require.Len(t, progress, 1)
	assert.Equal(t, int64(1), progress[0].ContextMap()["entities"])
}

func TestReportLogsFaults(t *testing.T) {
	w, err := world.New[int](1)
	require.NoError(t, err)
	w.Spawn(failing{})
	w.Spawn(swarm.NewMortal[int](5))

	r, stats, logs := newRunner(t, w, func(uint64) []event.Envelope[int] { return nil }, 0)
	r.Tick(time.Millisecond)
	r.Tick(time.Millisecond)

	assert.Equal(t, 1, stats.Faults)
	faults := logs.FilterMessage("entity removed after fault").All()
	require.Len(t, faults, 1)
	assert.Equal(t, uint64(1), faults[0].ContextMap()["entity"])
	assert.Empty(t, logs.FilterMessage("simulation progress").All())
}

func TestStimulusRejectsUnroutableEnvelopes(t *testing.T) {
	w, err := world.New[int](2)
	require.NoError(t, err)
	m := swarm.NewMortal[int](10)
	w.Spawn(m)

	source := func(tick uint64) []event.Envelope[int] {
		if tick != 1 {
			return nil
		}
		return []event.Envelope[int]{
			{Message: event.Message[int]{Payload: 1, Radius: 3}, Scope: event.ScopeProximity},
			{Message: event.Message[int]{Payload: 2}, Scope: event.ScopeBroadcast},
		}
	}
	r, stats, logs := newRunner(t, w, source, 0)
	r.Tick(time.Millisecond)

	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, stats.Messages)
	assert.Equal(t, 1, m.Received)
	rejected := logs.FilterMessage("stimulus rejected").All()
	require.Len(t, rejected, 1)
	assert.Equal(t, uint64(1), rejected[0].ContextMap()["tick"])
}
