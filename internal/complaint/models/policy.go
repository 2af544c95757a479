package models

import dErrors "complaintdesk/pkg/domain-errors"

// RejectPolicy decides which statuses may move to REJECTED. RejectAny leaves
// Reject unguarded; RejectPendingOnly is opt-in.
type RejectPolicy string

const (
	RejectAny         RejectPolicy = "any"
	RejectPendingOnly RejectPolicy = "pending_only"
)

func ParseRejectPolicy(s string) (RejectPolicy, error) {
	switch RejectPolicy(s) {
	case RejectAny, RejectPendingOnly:
		return RejectPolicy(s), nil
	case "":
		return RejectAny, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid reject policy")
}

// Allows reports whether a complaint in status may be rejected.
// Re-rejecting an already rejected complaint is allowed under RejectAny and
// only updates the reason.
func (p RejectPolicy) Allows(status Status) bool {
	if p == RejectPendingOnly {
		return status == StatusPending
	}
	return true
}

// AllowedStatuses returns the status guard for the store update; nil means any.
func (p RejectPolicy) AllowedStatuses() []Status {
	if p == RejectPendingOnly {
		return []Status{StatusPending}
	}
	return nil
}

// AssignPolicy decides in which statuses the responsible officer may change.
// AssignAny keeps last-writer-wins in every status, closed cases included.
type AssignPolicy string

const (
	AssignAny      AssignPolicy = "any"
	AssignOpenOnly AssignPolicy = "open_only"
)

func ParseAssignPolicy(s string) (AssignPolicy, error) {
	switch AssignPolicy(s) {
	case AssignAny, AssignOpenOnly:
		return AssignPolicy(s), nil
	case "":
		return AssignAny, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "invalid assign policy")
}

func (p AssignPolicy) Allows(status Status) bool {
	if p == AssignOpenOnly {
		return !status.IsTerminal()
	}
	return true
}

func (p AssignPolicy) AllowedStatuses() []Status {
	if p == AssignOpenOnly {
		return []Status{StatusPending, StatusInProgress}
	}
	return nil
}
