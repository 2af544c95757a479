package domain

import (
	"strconv"
	"strings"

	dErrors "complaintdesk/pkg/domain-errors"
)

// ComplaintID identifies a complaint. It is assigned by the store and never changes.
type ComplaintID int64

// StaffID identifies a staff user (admin or official).
type StaffID int64

// maxIDLength bounds input before numeric parsing; int64 has at most 19 digits.
const maxIDLength = 19

func (c ComplaintID) String() string { return strconv.FormatInt(int64(c), 10) }

func (s StaffID) String() string { return strconv.FormatInt(int64(s), 10) }

// IsZero reports whether the ID is unset.
func (c ComplaintID) IsZero() bool { return c == 0 }

// IsZero reports whether the ID is unset.
func (s StaffID) IsZero() bool { return s == 0 }

// ParseComplaintID parses a positive complaint ID from external input.
func ParseComplaintID(s string) (ComplaintID, error) {
	v, err := parsePositive(s, "complaint id")
	if err != nil {
		return 0, err
	}
	return ComplaintID(v), nil
}

// ParseStaffID parses a positive staff ID from external input.
func ParseStaffID(s string) (StaffID, error) {
	v, err := parsePositive(s, "staff id")
	if err != nil {
		return 0, err
	}
	return StaffID(v), nil
}

func parsePositive(s, label string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	if len(s) > maxIDLength {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return v, nil
}
