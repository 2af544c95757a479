package domain

import dErrors "complaintdesk/pkg/domain-errors"

// Role is the capability level of a staff user.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries (token claims, user rows);
// direct casting bypasses validation.
type Role string

const (
	// RoleAdmin may assign officers and perform every lifecycle action.
	RoleAdmin Role = "ADMIN"
	// RoleOfficial is a health-office officer who investigates complaints.
	RoleOfficial Role = "OFFICIAL"
)

var validRoles = map[Role]bool{
	RoleAdmin:    true,
	RoleOfficial: true,
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// IsAdmin reports whether the role carries ADMIN capability.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
