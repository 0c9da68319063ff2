package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseStimulus Phase = iota // 0: queue external messages for the coming tick
	PhaseStep                  // 1: advance the world one tick
	PhaseReport                // 2: log faults and running totals
)

// System is the interface every runner system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
