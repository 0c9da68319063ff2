package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/world"
)

// Signal is the message type of scripted worlds.
type Signal struct {
	Name  string
	Value float64
}

// Behavior runs an entity through Lua functions named after its kind:
//
//	function <kind>_init(self)            -- optional
//	function <kind>_update(self, ctx)     -- returns an action table or nil
//	function <kind>_receive(self, msg)    -- returns an action table or nil
//
// self is a per-entity table seeded with the spawn params. An action table
// may hold move = {dx, ...}, broadcast = {name=, value=},
// emit = {name=, value=, radius=}, spawn = {kind=, position={...}, params={...}}
// and die = true. Lua errors surface as entity faults.
type Behavior struct {
	engine *Engine
	kind   string
	self   *lua.LTable
}

// NewBehavior creates a scripted behavior of the given kind.
func (e *Engine) NewBehavior(kind string, params map[string]float64) (*Behavior, error) {
	if !e.Has(kind) {
		return nil, fmt.Errorf("script kind %q: missing %s_update or %s_receive", kind, kind, kind)
	}
	self := e.vm.NewTable()
	self.RawSetString("kind", lua.LString(kind))
	for k, v := range params {
		self.RawSetString(k, lua.LNumber(v))
	}
	if e.fn(kind+"_init") != nil {
		if _, err := e.call(kind+"_init", self); err != nil {
			return nil, err
		}
	}
	return &Behavior{engine: e, kind: kind, self: self}, nil
}

func (b *Behavior) Kind() string { return b.kind }

// Field reads a numeric field of the script state.
func (b *Behavior) Field(name string) float64 {
	return float64(lua.LVAsNumber(b.self.RawGetString(name)))
}

func (b *Behavior) Update(ctx *world.Context[Signal]) error {
	vm := b.engine.vm
	c := vm.NewTable()
	c.RawSetString("id", lua.LNumber(ctx.ID()))
	c.RawSetString("tick", lua.LNumber(ctx.Tick()))
	c.RawSetString("dims", lua.LNumber(ctx.Dims()))
	if p := ctx.Position(); p != nil {
		c.RawSetString("position", b.pointTable(p))
	}
	ret, err := b.engine.call(b.kind+"_update", b.self, c)
	if err != nil {
		return err
	}
	return b.apply(ctx, ret)
}

func (b *Behavior) Receive(ctx *world.Context[Signal], msg event.Message[Signal]) error {
	vm := b.engine.vm
	m := vm.NewTable()
	m.RawSetString("name", lua.LString(msg.Payload.Name))
	m.RawSetString("value", lua.LNumber(msg.Payload.Value))
	m.RawSetString("origin", lua.LNumber(msg.Origin))
	if msg.Spatial() {
		m.RawSetString("position", b.pointTable(msg.Position))
	}
	ret, err := b.engine.call(b.kind+"_receive", b.self, m)
	if err != nil {
		return err
	}
	return b.apply(ctx, ret)
}

func (b *Behavior) apply(ctx *world.Context[Signal], ret lua.LValue) error {
	t, ok := ret.(*lua.LTable)
	if !ok {
		return nil
	}
	if mv, ok := t.RawGetString("move").(*lua.LTable); ok {
		if err := ctx.Translate(toPoint(mv)); err != nil {
			return err
		}
	}
	if bc, ok := t.RawGetString("broadcast").(*lua.LTable); ok {
		ctx.Broadcast(toSignal(bc))
	}
	if em, ok := t.RawGetString("emit").(*lua.LTable); ok {
		radius := float64(lua.LVAsNumber(em.RawGetString("radius")))
		if err := ctx.Emit(toSignal(em), radius); err != nil {
			return err
		}
	}
	if sp, ok := t.RawGetString("spawn").(*lua.LTable); ok {
		if err := b.spawn(ctx, sp); err != nil {
			return err
		}
	}
	if lua.LVAsBool(t.RawGetString("die")) {
		if err := ctx.Die(); err != nil {
			return err
		}
	}
	return nil
}

func (b *Behavior) spawn(ctx *world.Context[Signal], sp *lua.LTable) error {
	kind := lua.LVAsString(sp.RawGetString("kind"))
	if kind == "" {
		kind = b.kind
	}
	params := map[string]float64{}
	if pt, ok := sp.RawGetString("params").(*lua.LTable); ok {
		pt.ForEach(func(k, v lua.LValue) {
			if n, ok := v.(lua.LNumber); ok {
				params[k.String()] = float64(n)
			}
		})
	}
	child, err := b.engine.NewBehavior(kind, params)
	if err != nil {
		return err
	}
	var pos mathx.Point
	if pt, ok := sp.RawGetString("position").(*lua.LTable); ok {
		pos = toPoint(pt)
	}
	return ctx.Spawn(child, pos)
}

func (b *Behavior) pointTable(p mathx.Point) *lua.LTable {
	t := b.engine.vm.NewTable()
	for _, v := range p {
		t.Append(lua.LNumber(v))
	}
	return t
}

func toPoint(t *lua.LTable) mathx.Point {
	n := t.Len()
	p := make(mathx.Point, n)
	for i := 1; i <= n; i++ {
		p[i-1] = float64(lua.LVAsNumber(t.RawGetInt(i)))
	}
	return p
}

func toSignal(t *lua.LTable) Signal {
	return Signal{
		Name:  lua.LVAsString(t.RawGetString("name")),
		Value: float64(lua.LVAsNumber(t.RawGetString("value"))),
	}
}
