// Package handler exposes the read-only report endpoints.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"complaintdesk/internal/report/aggregate"
	"complaintdesk/internal/report/export"
	"complaintdesk/internal/report/performance"
	"complaintdesk/internal/report/service"
	"complaintdesk/internal/report/store"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/httputil"
	"complaintdesk/pkg/requestcontext"
)

// Service defines the report queries served over HTTP.
type Service interface {
	Monthly(ctx context.Context, dimension, endMonth string) (*aggregate.Series, error)
	Fines(ctx context.Context, endMonth string, filter store.FineFilter) (*aggregate.FineSeries, error)
	Officers(ctx context.Context) (*performance.OfficerReport, error)
	Group(ctx context.Context, timeRange string) (*performance.GroupStats, error)
	Overview(ctx context.Context, endMonth, timeRange string) (*service.Overview, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the report routes on a staff-authenticated router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/reports/monthly/{dimension}", h.HandleMonthly)
	r.Get("/reports/fines", h.HandleFines)
	r.Get("/reports/officers", h.HandleOfficers)
	r.Get("/reports/performance", h.HandleGroup)
	r.Get("/reports/overview", h.HandleOverview)
	r.Get("/reports/overview.xlsx", h.HandleOverviewExport)
}

func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.Monthly(r.Context(), chi.URLParam(r, "dimension"), endMonth(r))
	if err != nil {
		h.fail(w, r, "monthly", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", series)
}

func (h *Handler) HandleFines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.FineFilter{
		Act:     strings.TrimSpace(q.Get("act")),
		Section: strings.TrimSpace(q.Get("section")),
	}
	series, err := h.service.Fines(r.Context(), endMonth(r), filter)
	if err != nil {
		h.fail(w, r, "fines", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", series)
}

func (h *Handler) HandleOfficers(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Officers(r.Context())
	if err != nil {
		h.fail(w, r, "officers", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", report)
}

func (h *Handler) HandleGroup(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Group(r.Context(), timeRange(r))
	if err != nil {
		h.fail(w, r, "performance", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", stats)
}

func (h *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), endMonth(r), timeRange(r))
	if err != nil {
		h.fail(w, r, "overview", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", overview)
}

func (h *Handler) HandleOverviewExport(w http.ResponseWriter, r *http.Request) {
	overview, err := h.service.Overview(r.Context(), endMonth(r), timeRange(r))
	if err != nil {
		h.fail(w, r, "overview_export", err)
		return
	}
	data, err := export.Workbook(overview)
	if err != nil {
		h.fail(w, r, "overview_export", dErrors.Wrap(err, dErrors.CodeInternal, "failed to render workbook"))
		return
	}

	last := overview.Months[len(overview.Months)-1]
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="complaints-%s.xlsx"`, last))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func endMonth(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("endMonth"))
}

func timeRange(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get("timeRange"))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "report request failed",
		"operation", op,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
