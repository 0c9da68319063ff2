package swarm

import (
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/world"
)

// Mortal lives for a fixed number of ticks and ignores messages.
type Mortal[M any] struct {
	Lifetime int
	Received int
}

func NewMortal[M any](lifetime int) *Mortal[M] {
	return &Mortal[M]{Lifetime: lifetime}
}

func (m *Mortal[M]) Update(ctx *world.Context[M]) error {
	if m.Lifetime <= 0 {
		return ctx.Die()
	}
	m.Lifetime--
	if m.Lifetime == 0 {
		return ctx.Die()
	}
	return nil
}

func (m *Mortal[M]) Receive(_ *world.Context[M], _ event.Message[M]) error {
	m.Received++
	return nil
}
