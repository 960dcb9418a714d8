// Package domain holds the production-scheduling data model.
// A Task is a production order for N units of one part; it owns
// TaskStages, one per route operation: plan → execute → track.
package domain

// Status tracks the lifecycle of both tasks and task stages.
// Both entities share one state machine; transition rules live here
// instead of being re-checked ad hoc at every call site.
type Status string

const (
	StatusPlanned    Status = "PLANNED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusPaused     Status = "PAUSED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// IsTerminal returns true once no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition: Planned → InProgress → {Paused ↔ InProgress}
// → Completed, with Cancelled reachable from any non-terminal state.
func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPlanned:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusPaused || next == StatusCompleted
	case StatusPaused:
		return next == StatusInProgress
	default:
		return false
	}
}

// Active reports whether the status counts against machine capacity.
// Completed and cancelled stages no longer occupy their windows.
func (s Status) Active() bool {
	return !s.IsTerminal()
}
