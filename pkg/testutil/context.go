package testutil

import (
	"net/http"

	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/requestcontext"
)

// WithStaff adds a staff identity to the request context, as the staff auth
// middleware would for a valid bearer token.
func WithStaff(req *http.Request, staffID id.StaffID, role id.Role) *http.Request {
	return req.WithContext(requestcontext.WithStaff(req.Context(), staffID, role))
}

// WithAdmin is WithStaff for an ADMIN user.
func WithAdmin(req *http.Request, staffID id.StaffID) *http.Request {
	return WithStaff(req, staffID, id.RoleAdmin)
}

// WithOfficial is WithStaff for an OFFICIAL user.
func WithOfficial(req *http.Request, staffID id.StaffID) *http.Request {
	return WithStaff(req, staffID, id.RoleOfficial)
}
