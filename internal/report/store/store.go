// Package store reads the narrow complaint and fine projections that reports
// aggregate. Sources return raw rows; bucketing happens in Go.
package store

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
)

// ComplaintFact is the reporting projection of a complaint.
type ComplaintFact struct {
	ID                  id.ComplaintID
	Status              models.Status
	ReceivedDate        *time.Time
	CreatedAt           time.Time
	InvestigationDate   *time.Time
	District            *string
	Channel             *models.Channel
	RelatedActs         []string
	IsSafetyHealth      bool
	ResponsiblePersonID *id.StaffID
}

// EffectiveDate is the date the complaint is reported under.
func (f ComplaintFact) EffectiveDate(loc *time.Location) time.Time {
	return models.EffectiveDate(f.ReceivedDate, f.CreatedAt, loc)
}

// FineFact is one fine row.
type FineFact struct {
	ComplaintID id.ComplaintID
	ActName     string
	Section     string
	Amount      decimal.Decimal
	CreatedAt   time.Time
}

// Range bounds the effective date of the rows read, inclusive. The zero Range
// is unbounded.
type Range struct {
	From time.Time
	To   time.Time
}

// Unbounded reports whether r places no limit on dates.
func (r Range) Unbounded() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Includes reports whether t lies within r.
func (r Range) Includes(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// FineFilter narrows fine rows. Act matches exactly, Section as a substring.
type FineFilter struct {
	Act     string
	Section string
}

// Matches applies the filter to one row.
func (f FineFilter) Matches(fine FineFact) bool {
	if f.Act != "" && fine.ActName != f.Act {
		return false
	}
	if f.Section != "" && !strings.Contains(fine.Section, f.Section) {
		return false
	}
	return true
}

const dateLayout = "2006-01-02"
