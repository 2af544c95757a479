package models

import dErrors "complaintdesk/pkg/domain-errors"

// Status is the lifecycle state of a complaint.
//
// Transitions:
//
//	PENDING     -> IN_PROGRESS (accept)
//	PENDING     -> REJECTED
//	IN_PROGRESS -> IN_PROGRESS (re-investigation, reassignment)
//	IN_PROGRESS -> RESOLVED
//
// REJECTED and RESOLVED are terminal. Manual entry creates complaints directly
// in IN_PROGRESS.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusResolved   Status = "RESOLVED"
	StatusRejected   Status = "REJECTED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusInProgress, StatusResolved, StatusRejected}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid status")
	}
	return st, nil
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

func (s Status) String() string {
	return string(s)
}
