package task

// StateType is the phase a run is in.
type StateType int

const (
	// StateInitialized is a task that has not started.
	StateInitialized StateType = iota
	// StateScheduling appends selected segments until the target duration.
	StateScheduling
	// StateDraining appends segments whose timestamps never fired.
	StateDraining
	// StateFinalizing joins the chunks and applies effects.
	StateFinalizing
	// StateDone exposes the finished sample.
	StateDone
	// StateFailed is entered when any phase returns an error.
	StateFailed
)

// String returns the string representation of the state.
func (s StateType) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateScheduling:
		return "scheduling"
	case StateDraining:
		return "draining"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// stateMachine enforces the order of a run's phases.
type stateMachine struct {
	current     StateType
	transitions map[StateType][]StateType
	onEnter     func(from, to StateType)
}

func newStateMachine() *stateMachine {
	return &stateMachine{
		current: StateInitialized,
		transitions: map[StateType][]StateType{
			// Preview goes straight to finalizing.
			StateInitialized: {StateScheduling, StateFinalizing, StateFailed},
			StateScheduling:  {StateDraining, StateFailed},
			StateDraining:    {StateFinalizing, StateFailed},
			StateFinalizing:  {StateDone, StateFailed},
		},
	}
}

// transition moves to the given state, returning false when the move is not
// allowed from the current one.
func (sm *stateMachine) transition(to StateType) bool {
	for _, state := range sm.transitions[sm.current] {
		if state != to {
			continue
		}
		from := sm.current
		sm.current = to
		if sm.onEnter != nil {
			sm.onEnter(from, to)
		}
		return true
	}
	return false
}
