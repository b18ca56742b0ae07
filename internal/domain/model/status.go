package model

import "fmt"

// Status represents the lifecycle state of a service request.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusAccepted   Status = "ACCEPTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Wire status identifiers. These are an external contract with the backend
// and must not be renumbered.
const (
	StatusIDAccepted   = 1
	StatusIDCancelled  = 2
	StatusIDPending    = 3
	StatusIDInProgress = 4
	StatusIDCompleted  = 5
)

// transitions is the closed transition table. CANCELLED is reachable from any
// non-terminal state; nothing leaves a terminal state.
var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is one of the closed set of statuses.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from s to next is allowed by the
// transition table.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// WireID maps the symbolic status to its numeric wire identifier.
func (s Status) WireID() int {
	switch s {
	case StatusAccepted:
		return StatusIDAccepted
	case StatusCancelled:
		return StatusIDCancelled
	case StatusInProgress:
		return StatusIDInProgress
	case StatusCompleted:
		return StatusIDCompleted
	default:
		return StatusIDPending
	}
}

// StatusFromWireID maps a numeric wire identifier to its symbolic status.
// Unknown identifiers map to PENDING, the backend's default.
func StatusFromWireID(id int) Status {
	switch id {
	case StatusIDAccepted:
		return StatusAccepted
	case StatusIDCancelled:
		return StatusCancelled
	case StatusIDInProgress:
		return StatusInProgress
	case StatusIDCompleted:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// InvalidTransitionError reports a status change rejected by the transition table.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}
