package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	id "complaintdesk/pkg/domain"
)

// MaxFineEntries caps the fine entries accepted per investigation save.
const MaxFineEntries = 3

// InvestigationFine is one penalty row owned by a complaint. The set of rows
// for a complaint always mirrors the latest investigation save.
type InvestigationFine struct {
	ID          int64           `json:"id"`
	ComplaintID id.ComplaintID  `json:"complaint_id"`
	ActName     string          `json:"act_name"`
	Section     string          `json:"section"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

// FineEntry is a fine as submitted by the caller, before normalization.
type FineEntry struct {
	Act     string `json:"act"`
	Section string `json:"section"`
	Amount  string `json:"amount"`
}

// Fine is a well-formed fine entry.
type Fine struct {
	Act     string
	Section string
	Amount  decimal.Decimal
}

// Normalize trims the entry and parses its amount. ok is false when a field
// is missing or the amount is not a non-negative number.
func (e FineEntry) Normalize() (Fine, bool) {
	act := strings.TrimSpace(e.Act)
	section := strings.TrimSpace(e.Section)
	raw := strings.ReplaceAll(strings.TrimSpace(e.Amount), ",", "")
	if act == "" || section == "" || raw == "" {
		return Fine{}, false
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.IsNegative() {
		return Fine{}, false
	}
	return Fine{Act: act, Section: section, Amount: amount}, true
}

// WellFormedFines returns the normalized entries, dropping malformed ones.
func WellFormedFines(entries []FineEntry) []Fine {
	out := make([]Fine, 0, len(entries))
	for _, e := range entries {
		if f, ok := e.Normalize(); ok {
			out = append(out, f)
		}
	}
	return out
}
