package models

// ExecutionState tracks a scheduled transfer through its relay-local
// lifecycle. State is ephemeral: it is rebuilt from event replay after a
// restart and is only ever mutated by the transfer's own execution loop.
type ExecutionState int

const (
	StateDiscovered ExecutionState = iota
	StateWaitingForWindow
	StateSimulating
	StateSubmitting
	StateRetryBackoff
	StateConfirmed
	StateAlreadyCompleted
	StateExpired
)

var stateNames = map[ExecutionState]string{
	StateDiscovered:       "discovered",
	StateWaitingForWindow: "waiting",
	StateSimulating:       "simulating",
	StateSubmitting:       "submitting",
	StateRetryBackoff:     "retry-backoff",
	StateConfirmed:        "confirmed",
	StateAlreadyCompleted: "already-completed",
	StateExpired:          "expired",
}

func (s ExecutionState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the state ends the execution loop.
func (s ExecutionState) Terminal() bool {
	switch s {
	case StateConfirmed, StateAlreadyCompleted, StateExpired:
		return true
	}
	return false
}
