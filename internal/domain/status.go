package domain

// Status is the lifecycle state of an idempotency key.
type Status string

const (
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusBadRequest Status = "BAD_REQUEST"
	StatusFailed     Status = "FAILED"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusBadRequest || s == StatusFailed
}

func (s Status) Valid() bool {
	return s == StatusProcessing || s.IsTerminal()
}

// CanTransitionTo allows PROCESSING -> terminal and terminal -> same terminal.
func (s Status) CanTransitionTo(next Status) bool {
	if !next.IsTerminal() {
		return false
	}
	return s == StatusProcessing || s == next
}
