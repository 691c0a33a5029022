package export

// State is a step of the export state machine:
//
//	Idle -> Preparing -> Rendering -> Completed | Failed | Cancelled
//
// Preparing may also end directly in Failed or Cancelled.
type State int

const (
	StateIdle State = iota
	StatePreparing
	StateRendering
	StateCompleted
	StateFailed
	StateCancelled
)

var stateNames = map[State]string{
	StateIdle:      "idle",
	StatePreparing: "preparing",
	StateRendering: "rendering",
	StateCompleted: "completed",
	StateFailed:    "failed",
	StateCancelled: "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

var transitions = map[State][]State{
	StateIdle:      {StatePreparing},
	StatePreparing: {StateRendering, StateFailed, StateCancelled},
	StateRendering: {StateCompleted, StateFailed, StateCancelled},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
