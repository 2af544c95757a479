package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/httputil"
	"complaintdesk/pkg/platform/middleware/admin"
	"complaintdesk/pkg/requestcontext"
)

// Service defines the lifecycle operations exposed over HTTP.
type Service interface {
	Submit(ctx context.Context, req *models.SubmitRequest) (*models.Complaint, error)
	CreateManual(ctx context.Context, req *models.ManualCreateRequest) (*models.Complaint, error)
	Accept(ctx context.Context, req *models.AcceptRequest) (*models.Complaint, error)
	Reject(ctx context.Context, req *models.RejectRequest) (*models.Complaint, error)
	Assign(ctx context.Context, req *models.AssignRequest) (*models.Complaint, error)
	RecordInvestigation(ctx context.Context, req *models.InvestigationRequest) (*models.ComplaintDetails, error)
	Get(ctx context.Context, complaintID id.ComplaintID) (*models.ComplaintDetails, error)
	List(ctx context.Context, filter models.ListFilter) (*models.ListResult, error)
}

// Handler serves the complaint endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates a complaint Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterPublic mounts the citizen intake route. mws wrap only this route,
// typically the public rate limiter.
func (h *Handler) RegisterPublic(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.With(mws...).Post("/public/complaints", h.HandleSubmit)
}

// Register mounts the staff routes. r must already authenticate staff.
func (h *Handler) Register(r chi.Router) {
	r.Get("/complaints", h.HandleList)
	r.Post("/complaints", h.HandleCreateManual)
	r.Get("/complaints/{id}", h.HandleGet)
	r.Post("/complaints/{id}/accept", h.HandleAccept)
	r.Post("/complaints/{id}/reject", h.HandleReject)
	r.With(admin.RequireRole(h.logger, id.RoleAdmin)).Post("/complaints/{id}/assign", h.HandleAssign)
	r.Post("/complaints/{id}/investigation", h.HandleRecordInvestigation)
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer f.Close()

	files := f.files("evidence_files")
	c, err := h.service.Submit(r.Context(), &models.SubmitRequest{
		Complainant: f.complainant(),
		Incident:    f.incident(),
		Files:       files,
	})
	if err != nil {
		h.fail(w, r, "submit", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusCreated, "complaint submitted", c)
}

func (h *Handler) HandleCreateManual(w http.ResponseWriter, r *http.Request) {
	f, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer f.Close()

	files := f.files("evidence_files")
	doc := f.file("original_doc")
	c, err := h.service.CreateManual(r.Context(), &models.ManualCreateRequest{
		Complainant: f.complainant(),
		Incident:    f.incident(),
		Intake:      f.intake(),
		Files:       files,
		OriginalDoc: doc,
	})
	if err != nil {
		h.fail(w, r, "create_manual", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusCreated, "complaint created", c)
}

func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := h.complaintID(w, r)
	if !ok {
		return
	}
	f, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer f.Close()

	doc := f.file("original_doc")
	c, err := h.service.Accept(r.Context(), &models.AcceptRequest{
		ID:          complaintID,
		Intake:      f.intake(),
		OriginalDoc: doc,
	})
	if err != nil {
		h.fail(w, r, "accept", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "complaint accepted", c)
}

func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := h.complaintID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.RejectRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req.ID = complaintID
	c, err := h.service.Reject(ctx, req)
	if err != nil {
		h.fail(w, r, "reject", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "complaint rejected", c)
}

func (h *Handler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := h.complaintID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[models.AssignRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	req.ID = complaintID
	c, err := h.service.Assign(ctx, req)
	if err != nil {
		h.fail(w, r, "assign", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "officer assigned", c)
}

func (h *Handler) HandleRecordInvestigation(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := h.complaintID(w, r)
	if !ok {
		return
	}
	f, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer f.Close()

	fines, err := f.fines()
	if err != nil {
		h.fail(w, r, "record_investigation", err)
		return
	}
	responseDoc := f.file("response_doc")
	evidence := f.files("action_evidence_files")

	details, err := h.service.RecordInvestigation(r.Context(), &models.InvestigationRequest{
		ID:                complaintID,
		InvestigationDate: f.value("investigation_date"),
		IsGuilty:          f.value("is_guilty"),
		LegalAction:       f.value("legal_action"),
		Fines:             fines,
		ResponseDocNumber: f.value("response_doc_number"),
		ResponseDocDate:   f.value("response_doc_date"),
		Notes:             f.value("investigation_notes"),
		StatusUpdate:      f.value("status_update"),
		ResponseDoc:       responseDoc,
		EvidenceFiles:     evidence,
	})
	if err != nil {
		h.fail(w, r, "record_investigation", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "investigation saved", details)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	complaintID, ok := h.complaintID(w, r)
	if !ok {
		return
	}
	details, err := h.service.Get(r.Context(), complaintID)
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", details)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilter(r)
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "list", err)
		return
	}
	httputil.WriteOutcome(w, http.StatusOK, "", result)
}

func listFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	filter := models.ListFilter{Search: q.Get("q")}
	fields := map[string]string{}

	if v := strings.TrimSpace(q.Get("status")); v != "" {
		st, err := models.ParseStatus(v)
		if err != nil {
			fields["status"] = "must be a complaint status"
		} else {
			filter.Status = &st
		}
	}
	if v := strings.TrimSpace(q.Get("officer_id")); v != "" {
		officer, err := id.ParseStaffID(v)
		if err != nil {
			fields["officer_id"] = "must be a staff id"
		} else {
			filter.OfficerID = &officer
		}
	}
	for key, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				fields[key] = "must be a number"
				continue
			}
			*dst = n
		}
	}
	return filter, dErrors.Validation(fields)
}

func (h *Handler) complaintID(w http.ResponseWriter, r *http.Request) (id.ComplaintID, bool) {
	complaintID, err := id.ParseComplaintID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid complaint id"))
		return 0, false
	}
	return complaintID, true
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*form, bool) {
	f, err := parseForm(r, h.logger)
	if err != nil {
		h.fail(w, r, "parse_form", err)
		return nil, false
	}
	return f, true
}

// fail logs and writes the soft-failure envelope. Internal errors were already
// logged with their cause by the service.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, "complaint request failed",
		"operation", op,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
