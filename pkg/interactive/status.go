package interactive

// Status represents the lifecycle state of a session.
type Status string

const (
	// StatusPending means the session exists but the process has not
	// been confirmed started yet.
	StatusPending Status = "pending"
	// StatusRunning means the process is alive.
	StatusRunning Status = "running"
	// StatusCompleted means the process exited with code 0.
	StatusCompleted Status = "completed"
	// StatusFailed means the process could not be spawned, exited
	// non-zero, or ended outside the normal exit path.
	StatusFailed Status = "failed"
	// StatusCancelled means termination was requested and confirmed.
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// legalTransitions is the full transition table. Cancellation is legal
// from pending as well as running: a session may be cancelled before
// its process was ever confirmed alive.
var legalTransitions = map[Status][]Status{
	StatusPending: {StatusRunning, StatusFailed, StatusCancelled},
	StatusRunning: {StatusCompleted, StatusFailed, StatusCancelled},
}

// canTransition reports whether from -> to is an edge in the table.
// Terminal states have no outgoing edges.
func canTransition(from, to Status) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
