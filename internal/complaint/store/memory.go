package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/platform/sentinel"
)

// InMemory is a process-local store used by tests and database-less runs.
// It mirrors the guarded-update semantics of PostgresStore.
type InMemory struct {
	mu         sync.RWMutex
	txMu       sync.Mutex
	complaints map[id.ComplaintID]*models.Complaint
	fines      map[id.ComplaintID][]*models.InvestigationFine
	nextID     int64
	nextFineID int64
}

// NewInMemory constructs an empty in-memory complaint store.
func NewInMemory() *InMemory {
	return &InMemory{
		complaints: make(map[id.ComplaintID]*models.Complaint),
		fines:      make(map[id.ComplaintID][]*models.InvestigationFine),
	}
}

func (s *InMemory) Create(_ context.Context, c *models.Complaint) error {
	if c == nil {
		return fmt.Errorf("complaint is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.Intake.ComplaintNumber != nil && s.numberTaken(*c.Intake.ComplaintNumber, 0) {
		return fmt.Errorf("%w: complaints_complaint_number_key", sentinel.ErrConflict)
	}
	s.nextID++
	c.ID = id.ComplaintID(s.nextID)
	s.complaints[c.ID] = cloneComplaint(c)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.complaints[complaintID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneComplaint(c), nil
}

func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Complaint, int, error) {
	filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*models.Complaint, 0)
	for _, c := range s.complaints {
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.OfficerID != nil && (c.Intake.ResponsiblePersonID == nil || *c.Intake.ResponsiblePersonID != *filter.OfficerID) {
			continue
		}
		if search != "" && !matchesSearch(c, search) {
			continue
		}
		matched = append(matched, c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := min(filter.Offset, total)
	end := min(start+filter.Limit, total)
	page := make([]*models.Complaint, 0, end-start)
	for _, c := range matched[start:end] {
		page = append(page, cloneComplaint(c))
	}
	return page, total, nil
}

func (s *InMemory) Accept(_ context.Context, complaintID id.ComplaintID, intake models.Intake, now time.Time) error {
	return s.update(complaintID, []models.Status{models.StatusPending}, func(c *models.Complaint) error {
		if intake.ComplaintNumber != nil && s.numberTaken(*intake.ComplaintNumber, complaintID) {
			return fmt.Errorf("%w: complaints_complaint_number_key", sentinel.ErrConflict)
		}
		path, officer := c.Intake.OriginalDocPath, c.Intake.ResponsiblePersonID
		c.Intake = intake
		c.Intake.RelatedActs = append([]string{}, intake.RelatedActs...)
		if intake.OriginalDocPath == nil {
			c.Intake.OriginalDocPath = path
		}
		if intake.ResponsiblePersonID == nil {
			c.Intake.ResponsiblePersonID = officer
		}
		c.Status = models.StatusInProgress
		c.UpdatedAt = now
		return nil
	})
}

func (s *InMemory) Reject(_ context.Context, complaintID id.ComplaintID, reason string, allowed []models.Status, now time.Time) error {
	return s.update(complaintID, allowed, func(c *models.Complaint) error {
		c.Status = models.StatusRejected
		c.RejectionReason = &reason
		c.UpdatedAt = now
		return nil
	})
}

func (s *InMemory) Assign(_ context.Context, complaintID id.ComplaintID, officerID id.StaffID, allowed []models.Status, now time.Time) error {
	return s.update(complaintID, allowed, func(c *models.Complaint) error {
		c.Intake.ResponsiblePersonID = &officerID
		c.UpdatedAt = now
		return nil
	})
}

func (s *InMemory) SaveInvestigation(_ context.Context, complaintID id.ComplaintID, inv models.Investigation, next models.Status, now time.Time) error {
	return s.update(complaintID, []models.Status{models.StatusInProgress}, func(c *models.Complaint) error {
		prev := c.Investigation
		c.Investigation = inv
		if inv.ResponseDocPath == nil {
			c.Investigation.ResponseDocPath = prev.ResponseDocPath
		}
		c.Investigation.ActionEvidenceFiles = append(append([]string{}, prev.ActionEvidenceFiles...), inv.ActionEvidenceFiles...)
		c.Status = next
		c.UpdatedAt = now
		return nil
	})
}

func (s *InMemory) update(complaintID id.ComplaintID, allowed []models.Status, apply func(*models.Complaint) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.complaints[complaintID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if allowed != nil && !containsStatus(allowed, stored.Status) {
		return fmt.Errorf("%w: complaint is %s", sentinel.ErrInvalidState, stored.Status)
	}
	c := cloneComplaint(stored)
	if err := apply(c); err != nil {
		return err
	}
	s.complaints[complaintID] = c
	return nil
}

// LockComplaint only checks existence; RunInTx already serializes units of work.
func (s *InMemory) LockComplaint(_ context.Context, complaintID id.ComplaintID) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.complaints[complaintID]; !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *InMemory) DeleteFines(_ context.Context, complaintID id.ComplaintID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fines, complaintID)
	return nil
}

func (s *InMemory) InsertFine(_ context.Context, complaintID id.ComplaintID, fine models.Fine, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.complaints[complaintID]; !ok {
		return fmt.Errorf("%w: investigation_fines_complaint_id_fkey", sentinel.ErrConflict)
	}
	s.nextFineID++
	s.fines[complaintID] = append(s.fines[complaintID], &models.InvestigationFine{
		ID:          s.nextFineID,
		ComplaintID: complaintID,
		ActName:     fine.Act,
		Section:     fine.Section,
		Amount:      fine.Amount,
		CreatedAt:   now,
	})
	return nil
}

func (s *InMemory) ListFines(_ context.Context, complaintID id.ComplaintID) ([]*models.InvestigationFine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.InvestigationFine, 0, len(s.fines[complaintID]))
	for _, f := range s.fines[complaintID] {
		cp := *f
		out = append(out, &cp)
	}
	return out, nil
}

// RunInTx serializes units of work and restores the fine rows when fn fails.
func (s *InMemory) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := make(map[id.ComplaintID][]*models.InvestigationFine, len(s.fines))
	for k, v := range s.fines {
		snapshot[k] = append([]*models.InvestigationFine(nil), v...)
	}
	nextFineID := s.nextFineID
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.fines = snapshot
		s.nextFineID = nextFineID
		s.mu.Unlock()
		return err
	}
	return nil
}

// Complaints returns a copy of every stored complaint.
func (s *InMemory) Complaints() []*models.Complaint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Complaint, 0, len(s.complaints))
	for _, c := range s.complaints {
		out = append(out, cloneComplaint(c))
	}
	return out
}

// Fines returns a copy of every stored fine row.
func (s *InMemory) Fines() []*models.InvestigationFine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.InvestigationFine
	for _, rows := range s.fines {
		for _, f := range rows {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out
}

func (s *InMemory) numberTaken(number string, except id.ComplaintID) bool {
	for cid, c := range s.complaints {
		if cid != except && c.Intake.ComplaintNumber != nil && *c.Intake.ComplaintNumber == number {
			return true
		}
	}
	return false
}

func matchesSearch(c *models.Complaint, search string) bool {
	fields := []string{c.Complainant.Name, c.Incident.ProductName}
	if c.Incident.ShopName != nil {
		fields = append(fields, *c.Incident.ShopName)
	}
	if c.Intake.ComplaintNumber != nil {
		fields = append(fields, *c.Intake.ComplaintNumber)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

func containsStatus(statuses []models.Status, status models.Status) bool {
	for _, st := range statuses {
		if st == status {
			return true
		}
	}
	return false
}

func cloneComplaint(c *models.Complaint) *models.Complaint {
	cp := *c
	cp.Incident.EvidenceFiles = append([]string{}, c.Incident.EvidenceFiles...)
	cp.Intake.RelatedActs = append([]string{}, c.Intake.RelatedActs...)
	cp.Investigation.ActionEvidenceFiles = append([]string{}, c.Investigation.ActionEvidenceFiles...)
	return &cp
}
