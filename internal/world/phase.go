package world

// Phase is the World's position in the tick state machine:
// Idle → Updating → Indexing → Dispatching → Reconciling → Idle.
type Phase int

const (
	PhaseIdle        Phase = iota // between ticks
	PhaseUpdating                 // Update on every live entity
	PhaseIndexing                 // proximity snapshot build
	PhaseDispatching              // message delivery
	PhaseReconciling              // births, deaths, fault removal
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUpdating:
		return "updating"
	case PhaseIndexing:
		return "indexing"
	case PhaseDispatching:
		return "dispatching"
	case PhaseReconciling:
		return "reconciling"
	}
	return "unknown"
}
