package lifecycle

import (
	"fmt"

	"atrium/shared/failure"
)

// Appointment statuses. Every appointment starts as pending; approved,
// rejected and cancelled are reached only through Transition.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Audit actions recorded for every state-affecting mutation.
const (
	ActionCreate  = "create"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionCancel  = "cancel"
	ActionUpdate  = "update"
	ActionDelete  = "delete"
)

var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
	// rejected and cancelled are terminal
	StatusRejected:  {},
	StatusCancelled: {},
}

// Valid reports whether the given status is a known appointment status.
func Valid(status string) bool {
	_, ok := transitions[status]

	return ok
}

// Terminal reports whether no transition may leave the given status.
func Terminal(status string) bool {
	next, ok := transitions[status]

	return ok && len(next) == 0
}

// Blocking reports whether an appointment in this status occupies its rooms.
// Rejected and cancelled appointments never block the calendar.
func Blocking(status string) bool {
	return status == StatusPending || status == StatusApproved
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Transition validates a status change and returns a failure naming the
// current and attempted status when the change is not permitted.
func Transition(from, to string) error {
	if !Valid(from) {
		return failure.UnprocessableEntity(fmt.Sprintf("unknown appointment status %q", from)) //nolint:wrapcheck
	}

	if !Valid(to) {
		return failure.UnprocessableEntity(fmt.Sprintf("unknown appointment status %q", to)) //nolint:wrapcheck
	}

	if !CanTransition(from, to) {
		return failure.UnprocessableEntity(fmt.Sprintf("invalid transition from %q to %q", from, to)) //nolint:wrapcheck
	}

	return nil
}

// ActionFor maps a target status to the audit action recorded for it.
func ActionFor(to string) string {
	switch to {
	case StatusApproved:
		return ActionApprove
	case StatusRejected:
		return ActionReject
	case StatusCancelled:
		return ActionCancel
	default:
		return ActionUpdate
	}
}
