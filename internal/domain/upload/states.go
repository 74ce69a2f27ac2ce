package upload

type State string

const (
	StateIdle       State = "IDLE"
	StateValidated  State = "VALIDATED"
	StateUploading  State = "UPLOADING"
	StateCommitting State = "COMMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateFailed     State = "FAILED"
	StateCancelled  State = "CANCELLED"
)

var transitions = map[State][]State{
	StateIdle:       {StateValidated, StateCancelled},
	StateValidated:  {StateUploading, StateCancelled},
	StateUploading:  {StateCommitting, StateFailed, StateCancelled},
	StateCommitting: {StateSucceeded, StateFailed},
}

// CanTransition reports whether a session may move from one state to another.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateCancelled
}
