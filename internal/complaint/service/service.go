// Package service implements the complaint lifecycle: intake, accept, reject,
// assign and investigation recording.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"complaintdesk/internal/blob"
	"complaintdesk/internal/complaint/metrics"
	"complaintdesk/internal/complaint/models"
	"complaintdesk/pkg/attrs"
	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/platform/sentinel"
	"complaintdesk/pkg/requestcontext"
)

var tracer = otel.Tracer("complaintdesk/complaint")

// Upload prefixes group objects by attachment kind.
const (
	prefixEvidence       = "evidence"
	prefixOriginalDoc    = "original-docs"
	prefixResponseDoc    = "response-docs"
	prefixActionEvidence = "action-evidence"
)

// ComplaintStore is the persistence the lifecycle controller drives.
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, int, error)
	Accept(ctx context.Context, complaintID id.ComplaintID, intake models.Intake, now time.Time) error
	Reject(ctx context.Context, complaintID id.ComplaintID, reason string, allowed []models.Status, now time.Time) error
	Assign(ctx context.Context, complaintID id.ComplaintID, officerID id.StaffID, allowed []models.Status, now time.Time) error
	// SaveInvestigation appends inv.ActionEvidenceFiles to the stored list
	// inside the guarded update.
	SaveInvestigation(ctx context.Context, complaintID id.ComplaintID, inv models.Investigation, next models.Status, now time.Time) error
	ListFines(ctx context.Context, complaintID id.ComplaintID) ([]*models.InvestigationFine, error)
}

// Service orchestrates complaint state changes and their side effects.
type Service struct {
	complaints   ComplaintStore
	ledger       FineLedger
	uploader     Uploader
	notifier     Notifier
	logger       *slog.Logger
	metrics      *metrics.Metrics
	rejectPolicy models.RejectPolicy
	assignPolicy models.AssignPolicy
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithRejectPolicy sets which statuses may be rejected. Default RejectAny.
func WithRejectPolicy(p models.RejectPolicy) Option {
	return func(s *Service) {
		s.rejectPolicy = p
	}
}

// WithAssignPolicy sets in which statuses officers may be assigned. Default AssignAny.
func WithAssignPolicy(p models.AssignPolicy) Option {
	return func(s *Service) {
		s.assignPolicy = p
	}
}

// New constructs a Service.
func New(complaints ComplaintStore, ledger FineLedger, uploader Uploader, opts ...Option) *Service {
	s := &Service{
		complaints:   complaints,
		ledger:       ledger,
		uploader:     uploader,
		logger:       slog.Default(),
		rejectPolicy: models.RejectAny,
		assignPolicy: models.AssignAny,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit files a public complaint. Evidence is uploaded one file at a time and
// failed uploads are skipped.
func (s *Service) Submit(ctx context.Context, req *models.SubmitRequest) (c *models.Complaint, err error) {
	ctx, span := tracer.Start(ctx, "complaint.Submit")
	start := time.Now()
	defer func() { s.finish(span, "submit", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	incident := req.ParsedIncident()
	incident.EvidenceFiles = s.uploadAll(ctx, prefixEvidence, req.Files)

	c = models.NewSubmitted(req.ParsedComplainant(), incident, now)
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, s.translate(ctx, err, "failed to save complaint")
	}
	span.SetAttributes(attribute.String("complaint.id", c.ID.String()))

	s.logAudit(ctx, "complaint_submitted",
		"complaint_id", c.ID.String(),
		"evidence_files", len(incident.EvidenceFiles),
	)
	s.notify(ctx, fmt.Sprintf("มีเรื่องร้องเรียนใหม่ #%s: %s", c.ID, incident.ProductName))
	return c, nil
}

// CreateManual records a staff-entered complaint that starts IN_PROGRESS.
func (s *Service) CreateManual(ctx context.Context, req *models.ManualCreateRequest) (c *models.Complaint, err error) {
	ctx, span := tracer.Start(ctx, "complaint.CreateManual")
	start := time.Now()
	defer func() { s.finish(span, "create_manual", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	incident := req.ParsedIncident()
	incident.EvidenceFiles = s.uploadAll(ctx, prefixEvidence, req.Files)
	intake := req.ParsedIntake()
	intake.OriginalDocPath = s.uploadOne(ctx, prefixOriginalDoc, req.OriginalDoc)

	c = models.NewManual(req.ParsedComplainant(), incident, intake, now)
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, s.translate(ctx, err, "failed to save complaint")
	}
	span.SetAttributes(attribute.String("complaint.id", c.ID.String()))

	s.logAudit(ctx, "complaint_created_manually",
		"complaint_id", c.ID.String(),
		"staff_id", requestcontext.StaffID(ctx).String(),
	)
	return c, nil
}

// Accept moves a PENDING complaint to IN_PROGRESS with its intake facts. A
// stored original document is kept unless a new one is uploaded.
func (s *Service) Accept(ctx context.Context, req *models.AcceptRequest) (c *models.Complaint, err error) {
	ctx, span := tracer.Start(ctx, "complaint.Accept", trace.WithAttributes(attribute.String("complaint.id", req.ID.String())))
	start := time.Now()
	defer func() { s.finish(span, "accept", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanAccept(); err != nil {
		return nil, err
	}

	intake := req.ParsedIntake()
	intake.OriginalDocPath = s.uploadOne(ctx, prefixOriginalDoc, req.OriginalDoc)

	if err := s.complaints.Accept(ctx, req.ID, intake, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, "failed to accept complaint")
	}

	s.logAudit(ctx, "complaint_accepted",
		"complaint_id", req.ID.String(),
		"staff_id", requestcontext.StaffID(ctx).String(),
	)
	s.notify(ctx, fmt.Sprintf("รับเรื่องร้องเรียน #%s เลขที่ %s", req.ID, *intake.ComplaintNumber))
	return s.load(ctx, req.ID)
}

// Reject closes a complaint as REJECTED under the configured policy.
func (s *Service) Reject(ctx context.Context, req *models.RejectRequest) (c *models.Complaint, err error) {
	ctx, span := tracer.Start(ctx, "complaint.Reject", trace.WithAttributes(attribute.String("complaint.id", req.ID.String())))
	start := time.Now()
	defer func() { s.finish(span, "reject", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanReject(s.rejectPolicy); err != nil {
		return nil, err
	}

	if err := s.complaints.Reject(ctx, req.ID, req.Reason, s.rejectPolicy.AllowedStatuses(), requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, "failed to reject complaint")
	}

	s.logAudit(ctx, "complaint_rejected",
		"complaint_id", req.ID.String(),
		"previous_status", current.Status.String(),
		"staff_id", requestcontext.StaffID(ctx).String(),
	)
	s.notify(ctx, fmt.Sprintf("ไม่รับเรื่องร้องเรียน #%s: %s", req.ID, req.Reason))
	return s.load(ctx, req.ID)
}

// Assign sets the responsible officer. Only administrators may assign and the
// last write wins. The officer reference is not checked against the directory.
func (s *Service) Assign(ctx context.Context, req *models.AssignRequest) (c *models.Complaint, err error) {
	ctx, span := tracer.Start(ctx, "complaint.Assign", trace.WithAttributes(attribute.String("complaint.id", req.ID.String())))
	start := time.Now()
	defer func() { s.finish(span, "assign", start, err) }()

	if !requestcontext.StaffRole(ctx).IsAdmin() {
		return nil, dErrors.New(dErrors.CodeForbidden, "only administrators can assign officers")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanAssign(s.assignPolicy); err != nil {
		return nil, err
	}

	officer := req.ParsedOfficerID()
	if err := s.complaints.Assign(ctx, req.ID, officer, s.assignPolicy.AllowedStatuses(), requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, "failed to assign officer")
	}

	s.logAudit(ctx, "complaint_assigned",
		"complaint_id", req.ID.String(),
		"officer_id", officer.String(),
		"staff_id", requestcontext.StaffID(ctx).String(),
	)
	s.notify(ctx, fmt.Sprintf("มอบหมายเรื่องร้องเรียน #%s ให้เจ้าหน้าที่ #%s", req.ID, officer))
	return s.load(ctx, req.ID)
}

// RecordInvestigation saves the investigation outcome and next status, then
// replaces the fine rows. A fine ledger failure is logged and counted but does
// not fail or undo the saved investigation.
func (s *Service) RecordInvestigation(ctx context.Context, req *models.InvestigationRequest) (c *models.ComplaintDetails, err error) {
	ctx, span := tracer.Start(ctx, "complaint.RecordInvestigation", trace.WithAttributes(attribute.String("complaint.id", req.ID.String())))
	start := time.Now()
	defer func() { s.finish(span, "record_investigation", start, err) }()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if err := current.CanRecordInvestigation(); err != nil {
		return nil, err
	}

	inv := req.ParsedInvestigation()
	inv.ResponseDocPath = s.uploadOne(ctx, prefixResponseDoc, req.ResponseDoc)
	// only the new uploads; the store appends them to the stored list
	inv.ActionEvidenceFiles = s.uploadAll(ctx, prefixActionEvidence, req.EvidenceFiles)

	next := req.ParsedNextStatus()
	if err := s.complaints.SaveInvestigation(ctx, req.ID, inv, next, requestcontext.Now(ctx)); err != nil {
		return nil, s.translate(ctx, err, "failed to save investigation")
	}

	kind := req.ParsedLegalAction()
	written, syncErr := s.ledger.Sync(ctx, req.ID, kind, req.Fines)
	if syncErr != nil {
		s.logger.ErrorContext(ctx, "fine ledger sync failed",
			"complaint_id", req.ID.String(),
			"legal_action", string(kind),
			"error", syncErr,
		)
		span.AddEvent("fine_sync_failed")
		if s.metrics != nil {
			s.metrics.IncrementFineSyncFailures()
		}
	} else if s.metrics != nil {
		s.metrics.AddFinesWritten(written)
	}

	s.logAudit(ctx, "investigation_recorded",
		"complaint_id", req.ID.String(),
		"legal_action", string(kind),
		"next_status", next.String(),
		"fines_written", written,
		"staff_id", requestcontext.StaffID(ctx).String(),
	)
	if next == models.StatusResolved {
		s.notify(ctx, fmt.Sprintf("ดำเนินการเรื่องร้องเรียน #%s เสร็จสิ้น", req.ID))
	}
	return s.Get(ctx, req.ID)
}

// Get returns a complaint with its current fine rows.
func (s *Service) Get(ctx context.Context, complaintID id.ComplaintID) (*models.ComplaintDetails, error) {
	c, err := s.load(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	fines, err := s.complaints.ListFines(ctx, complaintID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load fines")
	}
	return &models.ComplaintDetails{Complaint: c, Fines: fines}, nil
}

// List returns one page of complaints, newest first.
func (s *Service) List(ctx context.Context, filter models.ListFilter) (*models.ListResult, error) {
	filter.Normalize()
	items, total, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to list complaints")
	}
	return &models.ListResult{Items: items, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) load(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, complaintID)
	if err != nil {
		return nil, s.translate(ctx, err, "failed to load complaint")
	}
	return c, nil
}

// translate maps store errors onto domain errors. Anything unrecognised is a
// persistence failure: logged here, reported to the caller generically.
func (s *Service) translate(ctx context.Context, err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "complaint not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "complaint status does not allow this action")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "complaint number already exists")
	}
	s.logger.ErrorContext(ctx, msg, "error", err, "request_id", requestcontext.RequestID(ctx))
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func (s *Service) uploadAll(ctx context.Context, prefix string, files []blob.File) []string {
	urls := make([]string, 0, len(files))
	for i := range files {
		if url := s.uploadOne(ctx, prefix, &files[i]); url != nil {
			urls = append(urls, *url)
		}
	}
	return urls
}

// uploadOne returns nil when there is no file or the upload failed.
func (s *Service) uploadOne(ctx context.Context, prefix string, f *blob.File) *string {
	if f == nil || f.IsEmpty() {
		return nil
	}
	url, err := s.uploader.Upload(ctx, prefix, f)
	if err != nil {
		s.logger.WarnContext(ctx, "attachment upload failed, skipping",
			"prefix", prefix,
			"file_name", f.Name,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.IncrementUploadFailures()
		}
		return nil
	}
	if url == "" {
		return nil
	}
	return &url
}

func (s *Service) notify(ctx context.Context, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, text); err != nil {
		s.logger.WarnContext(ctx, "notification failed", "error", err)
		if s.metrics != nil {
			s.metrics.IncrementNotifyFailures()
		}
	}
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	if kv := attrs.SpanAttributes(attributes, "audit.", "complaint_id", "officer_id", "status"); len(kv) > 0 {
		trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(kv...))
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) finish(span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	span.End()
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, start, err)
	}
}
