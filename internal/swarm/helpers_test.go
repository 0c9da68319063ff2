package swarm

import (
	"github.com/sekai/sekai/internal/core/event"
	"github.com/sekai/sekai/internal/mathx"
)

func footstepAt(p mathx.Point) event.Envelope[Pheromone] {
	return event.Envelope[Pheromone]{
		Message: event.Message[Pheromone]{Payload: Pheromone{Footstep: true}, Position: p, Radius: 0.5},
		Scope:   event.ScopeProximity,
	}
}
