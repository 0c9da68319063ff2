package swarm

import (
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
	"github.com/sekai/sekai/internal/world"
)

// RGB is a colour with float channels in [0, 255].
type RGB struct {
	R, G, B float64
}

func (c RGB) Lerp(to RGB, t float64) RGB {
	return RGB{
		R: c.R + (to.R-c.R)*t,
		G: c.G + (to.G-c.G)*t,
		B: c.B + (to.B-c.B)*t,
	}
}

// Light is the flash a firefly emits.
type Light struct {
	Color RGB
}

// AverageLight blends simultaneous flashes into one; use it as the World's
// coalesce function for firefly worlds.
func AverageLight(ls []Light) Light {
	if len(ls) == 0 {
		return Light{}
	}
	var sum RGB
	for _, l := range ls {
		sum.R += l.Color.R
		sum.G += l.Color.G
		sum.B += l.Color.B
	}
	n := float64(len(ls))
	return Light{Color: RGB{sum.R / n, sum.G / n, sum.B / n}}
}

// Firefly defaults.
const (
	DefaultFlashCooldown     = 100
	DefaultFlashRate         = 1
	DefaultFireflyLifetime   = 500
	DefaultSightRange        = 5.0
	DefaultReproductionRange = 5.0
	DefaultColorAlpha        = 1e-2
)

// Firefly counts down to a flash, flashes to everything within sight range,
// and on seeing a flash nudges its colour toward it, restarts its own
// countdown, and takes a unit step toward the flash.
type Firefly struct {
	Color             RGB
	FlashCooldown     int
	CurFlashCooldown  int
	FlashRate         int
	Lifetime          int
	SightRange        float64
	ReproductionRange float64 // 0 disables reproduction
	Alpha             float64

	Flashes    int
	reproduced bool
}

func NewFirefly() *Firefly {
	return &Firefly{
		Color:             RGB{50, 50, 50},
		FlashCooldown:     DefaultFlashCooldown,
		CurFlashCooldown:  DefaultFlashCooldown,
		FlashRate:         DefaultFlashRate,
		Lifetime:          DefaultFireflyLifetime,
		SightRange:        DefaultSightRange,
		ReproductionRange: DefaultReproductionRange,
		Alpha:             DefaultColorAlpha,
	}
}

func (f *Firefly) Update(ctx *world.Context[Light]) error {
	if f.Lifetime <= 0 {
		return ctx.Die()
	}
	f.Lifetime--
	if f.Lifetime == 0 {
		return ctx.Die()
	}

	f.CurFlashCooldown -= f.FlashRate
	if f.CurFlashCooldown > 0 {
		return nil
	}
	f.CurFlashCooldown = f.FlashCooldown
	f.Flashes++
	if ctx.Origin() == nil {
		ctx.Broadcast(Light{Color: f.Color})
		return nil
	}
	return ctx.Emit(Light{Color: f.Color}, f.SightRange)
}

func (f *Firefly) Receive(ctx *world.Context[Light], msg event.Message[Light]) error {
	if msg.Origin == ctx.ID() {
		return nil
	}
	f.Color = f.Color.Lerp(msg.Payload.Color, f.Alpha)
	f.CurFlashCooldown = f.FlashCooldown

	pos := ctx.Position()
	if pos == nil || !msg.Spatial() {
		return nil
	}
	dist := mathx.Distance(pos, msg.Position)
	if dist > 1 {
		if err := ctx.Translate(mathx.UnitStep(pos, msg.Position)); err != nil {
			return err
		}
	}

	if f.ReproductionRange > 0 && !f.reproduced && !ctx.Dying() && dist <= f.ReproductionRange {
		child := NewFirefly()
		child.Color = f.Color.Lerp(msg.Payload.Color, 0.5)
		child.FlashCooldown = f.FlashCooldown
		child.CurFlashCooldown = f.FlashCooldown
		child.FlashRate = f.FlashRate
		child.SightRange = f.SightRange
		child.ReproductionRange = f.ReproductionRange
		child.Alpha = f.Alpha
		if err := ctx.Spawn(child, mathx.Midpoint(pos, msg.Position)); err == nil {
			f.reproduced = true
		}
	}
	return nil
}
