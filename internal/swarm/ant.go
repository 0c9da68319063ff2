package swarm

import (
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/world"
)

// Pheromone is the only message of an ant world. Trails broadcast their
// strength; ants announce footsteps so trails they cross are refreshed.
type Pheromone struct {
	Strength float64
	Footstep bool
}

// Ant defaults.
const (
	DefaultStride         = 1.0
	DefaultSenseThreshold = 2.0
	DefaultDepositEvery   = 3
	DefaultTrailStrength  = 10.0
	DefaultTrailDecay     = 1.0
	DefaultSensitivity    = 4.0
	DefaultFootstepRadius = 0.5
)

// Ant walks toward the strongest pheromone it sensed last tick when that is
// at least SenseThreshold, otherwise it wanders. Every DepositEvery ticks it
// lays a Trail where it stands.
type Ant struct {
	Stride         float64
	SenseThreshold float64
	DepositEvery   int
	TrailStrength  float64
	TrailDecay     float64
	Sensitivity    float64 // radius at which laid trails can be sensed
	FootstepRadius float64 // trails this close to a step are refreshed; 0 disables

	Followed int
	age      int
	best     *scent
}

type scent struct {
	pos      mathx.Point
	strength float64
}

func NewAnt() *Ant {
	return &Ant{
		Stride:         DefaultStride,
		SenseThreshold: DefaultSenseThreshold,
		DepositEvery:   DefaultDepositEvery,
		TrailStrength:  DefaultTrailStrength,
		TrailDecay:     DefaultTrailDecay,
		Sensitivity:    DefaultSensitivity,
		FootstepRadius: DefaultFootstepRadius,
	}
}

func (a *Ant) Update(ctx *world.Context[Pheromone]) error {
	a.age++
	pos := ctx.Origin()
	if pos == nil {
		return nil
	}

	var dir mathx.Point
	if a.best != nil && a.best.strength >= a.SenseThreshold {
		dir = mathx.UnitStep(pos, a.best.pos)
		a.Followed++
	} else {
		dir = randomDirection(ctx.Rand(), ctx.Dims())
	}
	a.best = nil
	if err := ctx.Translate(mathx.Scale(dir, a.Stride)); err != nil {
		return err
	}

	// Footstep at the new spot refreshes any trail it lands on.
	if a.FootstepRadius > 0 {
		if err := ctx.EmitAt(Pheromone{Footstep: true}, ctx.Position(), a.FootstepRadius); err != nil {
			return err
		}
	}
	if a.DepositEvery > 0 && a.age%a.DepositEvery == 0 {
		trail := NewTrail(a.TrailStrength, a.TrailDecay, a.Sensitivity)
		if err := ctx.Spawn(trail, pos); err != nil {
			return err
		}
	}
	return nil
}

func (a *Ant) Receive(ctx *world.Context[Pheromone], msg event.Message[Pheromone]) error {
	if msg.Payload.Footstep || !msg.Spatial() {
		return nil
	}
	pos := ctx.Position()
	// a trail under the ant's feet gives no direction
	if pos != nil && mathx.Distance(pos, msg.Position) < a.Stride/2 {
		return nil
	}
	if a.best == nil || msg.Payload.Strength > a.best.strength {
		a.best = &scent{pos: msg.Position.Clone(), strength: msg.Payload.Strength}
	}
	return nil
}

// Trail is a stationary pheromone deposit. It advertises its strength to
// everything within Sensitivity each tick, loses Decay per tick, is reset
// to full strength by a footstep, and disappears when exhausted.
type Trail struct {
	Strength    float64
	Initial     float64
	Decay       float64
	Sensitivity float64
}

func NewTrail(strength, decay, sensitivity float64) *Trail {
	return &Trail{Strength: strength, Initial: strength, Decay: decay, Sensitivity: sensitivity}
}

func (t *Trail) Update(ctx *world.Context[Pheromone]) error {
	t.Strength -= t.Decay
	if t.Strength <= 0 {
		return ctx.Die()
	}
	if ctx.Origin() == nil {
		return nil
	}
	return ctx.Emit(Pheromone{Strength: t.Strength}, t.Sensitivity)
}

func (t *Trail) Receive(_ *world.Context[Pheromone], msg event.Message[Pheromone]) error {
	if msg.Payload.Footstep {
		t.Strength = t.Initial
	}
	return nil
}
