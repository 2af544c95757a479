package store

import (
	"context"
	"time"

	"complaintdesk/internal/complaint/models"
	complaintstore "complaintdesk/internal/complaint/store"
	id "complaintdesk/pkg/domain"
)

// MemorySource projects an in-memory complaint store for reports.
type MemorySource struct {
	complaints *complaintstore.InMemory
	loc        *time.Location
}

func NewMemory(complaints *complaintstore.InMemory, loc *time.Location) *MemorySource {
	return &MemorySource{complaints: complaints, loc: loc}
}

func (s *MemorySource) ComplaintFacts(_ context.Context, r Range) ([]ComplaintFact, error) {
	facts := []ComplaintFact{}
	for _, c := range s.complaints.Complaints() {
		f := factOf(c)
		if !r.Unbounded() && !s.inRange(f, r) {
			continue
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// inRange compares received dates as calendar dates, like the SQL source.
func (s *MemorySource) inRange(f ComplaintFact, r Range) bool {
	if f.ReceivedDate == nil {
		return r.Includes(f.CreatedAt)
	}
	day := f.ReceivedDate.Format(dateLayout)
	if !r.From.IsZero() && day < r.From.In(s.loc).Format(dateLayout) {
		return false
	}
	if !r.To.IsZero() && day > r.To.In(s.loc).Format(dateLayout) {
		return false
	}
	return true
}

func (s *MemorySource) FineFacts(_ context.Context, r Range, filter FineFilter) ([]FineFact, error) {
	rejected := map[id.ComplaintID]bool{}
	for _, c := range s.complaints.Complaints() {
		if c.Status == models.StatusRejected {
			rejected[c.ID] = true
		}
	}

	fines := []FineFact{}
	for _, f := range s.complaints.Fines() {
		if rejected[f.ComplaintID] || !r.Includes(f.CreatedAt) {
			continue
		}
		fact := FineFact{
			ComplaintID: f.ComplaintID,
			ActName:     f.ActName,
			Section:     f.Section,
			Amount:      f.Amount,
			CreatedAt:   f.CreatedAt,
		}
		if !filter.Matches(fact) {
			continue
		}
		fines = append(fines, fact)
	}
	return fines, nil
}

func factOf(c *models.Complaint) ComplaintFact {
	acts := c.Intake.RelatedActs
	if acts == nil {
		acts = []string{}
	}
	return ComplaintFact{
		ID:                  c.ID,
		Status:              c.Status,
		ReceivedDate:        c.Intake.ReceivedDate,
		CreatedAt:           c.CreatedAt,
		InvestigationDate:   c.Investigation.InvestigationDate,
		District:            c.Intake.District,
		Channel:             c.Intake.Channel,
		RelatedActs:         acts,
		IsSafetyHealth:      c.Intake.IsSafetyHealth,
		ResponsiblePersonID: c.Intake.ResponsiblePersonID,
	}
}
