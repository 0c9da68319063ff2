package scripting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/world"
)

const testScripts = `
function pulse_init(self)
  self.count = 0
  self.heard = 0
end

function pulse_update(self, ctx)
  self.count = self.count + 1
  if self.count >= self.lifetime then
    return { die = true }
  end
  return { broadcast = { name = "pulse", value = ctx.id } }
end

function pulse_receive(self, msg)
  self.heard = self.heard + 1
  return nil
end

function walker_update(self, ctx)
  return { move = { 1, 0 } }
end

function walker_receive(self, msg)
  return nil
end

function seeder_update(self, ctx)
  if ctx.tick == 1 then
    return { spawn = { kind = "walker", position = { 5, 5 } } }
  end
  return nil
end

function seeder_receive(self, msg) return nil end

function broken_update(self, ctx)
  error("boom")
end

function broken_receive(self, msg) return nil end

function echo_update(self, ctx) return nil end

function echo_receive(self, msg)
  self.last = msg.value
  if msg.position ~= nil then
    self.x = msg.position[1]
  end
  return nil
end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngineFromSource(testScripts, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestNewBehaviorRequiresBothFunctions(t *testing.T) {
	e := newTestEngine(t)
	assert.True(t, e.Has("pulse"))
	assert.False(t, e.Has("missing"))

	_, err := e.NewBehavior("missing", nil)
	assert.Error(t, err)
}

func TestInitAndParams(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.NewBehavior("pulse", map[string]float64{"lifetime": 3})
	require.NoError(t, err)
	assert.Equal(t, "pulse", b.Kind())
	assert.Equal(t, 3.0, b.Field("lifetime"))
	assert.Equal(t, 0.0, b.Field("count"))
}

func TestScriptedBroadcastAndDeath(t *testing.T) {
	e := newTestEngine(t)
	w, err := world.New[Signal](2)
	require.NoError(t, err)

	short, err := e.NewBehavior("pulse", map[string]float64{"lifetime": 2})
	require.NoError(t, err)
	long, err := e.NewBehavior("pulse", map[string]float64{"lifetime": 10})
	require.NoError(t, err)
	shortID := w.Spawn(short)
	w.Spawn(long)

	rep := w.Tick()
	require.NoError(t, rep.Err())
	assert.Equal(t, 2, rep.Messages)
	// each pulse reaches the other entity and itself
	assert.Equal(t, 2.0, short.Field("heard"))
	assert.Equal(t, 2.0, long.Field("heard"))

	rep = w.Tick()
	require.NoError(t, rep.Err())
	assert.Len(t, rep.Despawned, 1)
	assert.False(t, w.Alive(shortID))
	assert.Equal(t, 1, w.NumEntities())
}

func TestScriptedMove(t *testing.T) {
	e := newTestEngine(t)
	w, err := world.New[Signal](2)
	require.NoError(t, err)

	b, err := e.NewBehavior("walker", nil)
	require.NoError(t, err)
	id, err := w.SpawnAt(b, mathx.Point{0, 0})
	require.NoError(t, err)

	for range 3 {
		require.NoError(t, w.Tick().Err())
	}
	pos, err := w.Position(id)
	require.NoError(t, err)
	assert.Equal(t, mathx.Point{3, 0}, pos)
}

func TestScriptedSpawn(t *testing.T) {
	e := newTestEngine(t)
	w, err := world.New[Signal](2)
	require.NoError(t, err)

	b, err := e.NewBehavior("seeder", nil)
	require.NoError(t, err)
	w.Spawn(b)

	rep := w.Tick()
	require.NoError(t, rep.Err())
	assert.Len(t, rep.Spawned, 1)
	require.Equal(t, 2, w.NumEntities())

	child := w.IDs()[1]
	pos, err := w.Position(child)
	require.NoError(t, err)
	assert.Equal(t, mathx.Point{5, 5}, pos)
	cb, ok := w.Behavior(child)
	require.True(t, ok)
	assert.Equal(t, "walker", cb.(*Behavior).Kind())
}

func TestLuaErrorBecomesFault(t *testing.T) {
	e := newTestEngine(t)
	w, err := world.New[Signal](1)
	require.NoError(t, err)

	b, err := e.NewBehavior("broken", nil)
	require.NoError(t, err)
	id := w.Spawn(b)

	rep := w.Tick()
	require.Len(t, rep.Faults, 1)
	assert.Equal(t, id, rep.Faults[0].ID)
	assert.True(t, errors.Is(rep.Err(), world.ErrEntityFault))
	assert.Contains(t, rep.Faults[0].Err.Error(), "boom")
	assert.False(t, w.Alive(id))
}

func TestReceiveSeesMessageFields(t *testing.T) {
	e := newTestEngine(t)
	w, err := world.New[Signal](1)
	require.NoError(t, err)

	b, err := e.NewBehavior("echo", nil)
	require.NoError(t, err)
	_, err = w.SpawnAt(b, mathx.Point{0})
	require.NoError(t, err)

	rep := w.Broadcast(Signal{Name: "hello", Value: 7})
	require.NoError(t, rep.Err())
	assert.Equal(t, 7.0, b.Field("last"))
	assert.Equal(t, 0.0, b.Field("x"))
}

func TestNewEngineLoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "walker.lua"), []byte(`
function walker_update(self, ctx) return nil end
function walker_receive(self, msg) return nil end
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	e, err := NewEngine(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer e.Close()
	assert.True(t, e.Has("walker"))

	missing, err := NewEngine(filepath.Join(dir, "nope"), nil)
	require.NoError(t, err)
	defer missing.Close()
	assert.False(t, missing.Has("walker"))
}

func TestNewEngineRejectsBadSource(t *testing.T) {
	_, err := NewEngineFromSource("function (", nil)
	assert.Error(t, err)
}
