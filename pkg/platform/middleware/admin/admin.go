package admin

import (
	"log/slog"
	"net/http"

	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/httputil"
	request "complaintdesk/pkg/platform/middleware/request"
	"complaintdesk/pkg/requestcontext"
)

// RequireRole admits only staff whose role is one of roles. It must run after
// auth.RequireAuth.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	allowed := make(map[id.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.StaffRole(ctx)
			if !allowed[role] {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"request_id", request.GetRequestID(ctx),
					"staff_id", requestcontext.StaffID(ctx),
					"role", role,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "insufficient role for this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
