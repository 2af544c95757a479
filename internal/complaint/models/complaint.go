package models

import (
	"time"

	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
)

// Complaint is the aggregate root for a consumer-protection complaint.
//
// Invariants:
//   - ID and CreatedAt never change after creation
//   - Status follows the transitions documented on Status
//   - Intake fields are empty while PENDING; manual entry sets them at creation
//   - RejectionReason is non-empty exactly when Status is REJECTED
//   - A stored attachment reference is never replaced with an empty one
//
// Multi-valued fields (evidence lists, related acts) are plain slices here; the
// store owns their serialized form and decodes missing or malformed values as
// empty lists.
type Complaint struct {
	ID            id.ComplaintID `json:"id"`
	Complainant   Complainant    `json:"complainant"`
	Incident      Incident       `json:"incident"`
	Intake        Intake         `json:"intake"`
	Investigation Investigation  `json:"investigation"`

	Status          Status    `json:"status"`
	RejectionReason *string   `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Complainant holds who filed the complaint and how to reach them.
type Complainant struct {
	Name       string            `json:"name"`
	NationalID string            `json:"national_id"`
	Phone      string            `json:"phone"`
	Email      *string           `json:"email,omitempty"`
	Address    *string           `json:"address,omitempty"`
	Letter     *LetterPreference `json:"letter,omitempty"`
}

// LetterPreference is where the official reply letter should be sent.
type LetterPreference struct {
	Channel     DeliveryChannel `json:"channel"`
	Destination string          `json:"destination"`
}

// Incident describes the product and what happened.
type Incident struct {
	ProductName   string     `json:"product_name"`
	ShopName      *string    `json:"shop_name,omitempty"`
	Location      *string    `json:"location,omitempty"`
	IncidentDate  *time.Time `json:"incident_date,omitempty"`
	Damage        *string    `json:"damage,omitempty"`
	Details       *string    `json:"details,omitempty"`
	EvidenceFiles []string   `json:"evidence_files"`
}

// Intake is filled when staff accept a complaint or enter it manually.
type Intake struct {
	ComplaintNumber     *string        `json:"complaint_number,omitempty"`
	ReceivedDate        *time.Time     `json:"received_date,omitempty"`
	OriginalDocNumber   *string        `json:"original_doc_number,omitempty"`
	OriginalDocDate     *time.Time     `json:"original_doc_date,omitempty"`
	OriginalDocPath     *string        `json:"original_doc_path,omitempty"`
	Channel             *Channel       `json:"channel,omitempty"`
	Type                *ComplaintType `json:"complaint_type,omitempty"`
	District            *string        `json:"district,omitempty"`
	RelatedActs         []string       `json:"related_acts"`
	IsSafetyHealth      bool           `json:"is_safety_health"`
	ResponsiblePersonID *id.StaffID    `json:"responsible_person_id,omitempty"`
}

// Investigation holds the outcome recorded by the assigned officer.
type Investigation struct {
	InvestigationDate   *time.Time   `json:"investigation_date,omitempty"`
	IsGuilty            *bool        `json:"is_guilty,omitempty"`
	LegalAction         *LegalAction `json:"legal_action,omitempty"`
	ResponseDocNumber   *string      `json:"response_doc_number,omitempty"`
	ResponseDocDate     *time.Time   `json:"response_doc_date,omitempty"`
	ResponseDocPath     *string      `json:"response_doc_path,omitempty"`
	Notes               *string      `json:"investigation_notes,omitempty"`
	ActionEvidenceFiles []string     `json:"action_evidence_files"`
}

// NewSubmitted builds a complaint filed by the public. It starts PENDING with
// empty intake and investigation facts.
func NewSubmitted(c Complainant, inc Incident, now time.Time) *Complaint {
	if inc.EvidenceFiles == nil {
		inc.EvidenceFiles = []string{}
	}
	return &Complaint{
		Complainant:   c,
		Incident:      inc,
		Intake:        Intake{RelatedActs: []string{}},
		Investigation: Investigation{ActionEvidenceFiles: []string{}},
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewManual builds a staff-entered complaint that skips triage and starts IN_PROGRESS.
func NewManual(c Complainant, inc Incident, intake Intake, now time.Time) *Complaint {
	cmp := NewSubmitted(c, inc, now)
	if intake.RelatedActs == nil {
		intake.RelatedActs = []string{}
	}
	cmp.Intake = intake
	cmp.Status = StatusInProgress
	return cmp
}

// CanAccept checks the PENDING -> IN_PROGRESS transition.
func (c *Complaint) CanAccept() error {
	if c.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvalidState, "only pending complaints can be accepted")
	}
	return nil
}

// CanReject checks the transition to REJECTED under policy.
func (c *Complaint) CanReject(policy RejectPolicy) error {
	if !policy.Allows(c.Status) {
		return dErrors.New(dErrors.CodeInvalidState, "complaint cannot be rejected in status "+string(c.Status))
	}
	return nil
}

// CanAssign checks whether the responsible officer may change under policy.
func (c *Complaint) CanAssign(policy AssignPolicy) error {
	if !policy.Allows(c.Status) {
		return dErrors.New(dErrors.CodeInvalidState, "officer cannot be assigned in status "+string(c.Status))
	}
	return nil
}

// CanRecordInvestigation checks that an investigation may be saved.
func (c *Complaint) CanRecordInvestigation() error {
	if c.Status != StatusInProgress {
		return dErrors.New(dErrors.CodeInvalidState, "investigation can only be recorded while in progress")
	}
	return nil
}

// IsInspected reports IN_PROGRESS with an investigation date set.
func (c *Complaint) IsInspected() bool {
	return c.Status == StatusInProgress && c.Investigation.InvestigationDate != nil
}

// IsBacklog reports work not yet investigated: PENDING, or IN_PROGRESS without
// an investigation date.
func (c *Complaint) IsBacklog() bool {
	return IsBacklog(c.Status, c.Investigation.InvestigationDate)
}

// IsBacklog is the backlog rule shared with reporting rows.
func IsBacklog(status Status, investigationDate *time.Time) bool {
	return status == StatusPending || (status == StatusInProgress && investigationDate == nil)
}

// EffectiveDate is the date a complaint is reported under: the received date
// when set, otherwise the creation time in loc. Never the investigation date.
func EffectiveDate(receivedDate *time.Time, createdAt time.Time, loc *time.Location) time.Time {
	if receivedDate != nil {
		y, m, d := receivedDate.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
	return createdAt.In(loc)
}
