// Package officer is the staff directory: who can be assigned complaints and
// whose names appear in performance reports.
package officer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/platform/httputil"
)

// Officer is a staff user.
type Officer struct {
	ID       id.StaffID `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	Role     id.Role    `json:"role"`
	IsActive bool       `json:"is_active"`
}

// Store lists staff users.
type Store interface {
	ListActive(ctx context.Context, role id.Role) ([]*Officer, error)
}

// Handler serves the officer directory.
type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts GET /officers on a staff-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/officers", h.HandleList)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	officers, err := h.store.ListActive(r.Context(), id.RoleOfficial)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list officers", "error", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", officers)
}
