package models

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"complaintdesk/internal/blob"
	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	pstrings "complaintdesk/pkg/platform/strings"
)

// DateLayout is the wire format of every date-only field.
const DateLayout = "2006-01-02"

const (
	maxTextLength   = 255
	maxDetailLength = 5000
	nationalIDLen   = 13
)

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	return dErrors.Validation(f)
}

func requiredText(fe fieldErrors, field, value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		fe.add(field, "is required")
	} else if utf8.RuneCountInString(v) > maxTextLength {
		fe.add(field, "is too long")
	}
	return v
}

func optionalText(fe fieldErrors, field, value string, limit int) *string {
	v := pstrings.OptionalTrim(value)
	if v != nil && utf8.RuneCountInString(*v) > limit {
		fe.add(field, "is too long")
	}
	return v
}

func optionalDate(fe fieldErrors, field, value string) *time.Time {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, v)
	if err != nil {
		fe.add(field, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}

func requiredDate(fe fieldErrors, field, value string) *time.Time {
	if strings.TrimSpace(value) == "" {
		fe.add(field, "is required")
		return nil
	}
	return optionalDate(fe, field, value)
}

// -----------------------------------------------------------------------------
// Shared inputs
// -----------------------------------------------------------------------------

// ComplainantInput is the raw complainant section of a submission.
type ComplainantInput struct {
	Name              string `json:"name"`
	NationalID        string `json:"national_id"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	LetterChannel     string `json:"letter_channel"`
	LetterDestination string `json:"letter_destination"`
}

func (in ComplainantInput) parse(fe fieldErrors) Complainant {
	c := Complainant{
		Name:       requiredText(fe, "name", in.Name),
		NationalID: strings.TrimSpace(in.NationalID),
		Phone:      strings.TrimSpace(in.Phone),
		Email:      optionalText(fe, "email", in.Email, maxTextLength),
		Address:    optionalText(fe, "address", in.Address, maxDetailLength),
	}

	switch {
	case c.NationalID == "":
		fe.add("national_id", "is required")
	case len(c.NationalID) != nationalIDLen || !allDigits(c.NationalID):
		fe.add("national_id", "must be 13 digits")
	}

	digits := strings.NewReplacer(" ", "", "-", "").Replace(c.Phone)
	switch {
	case c.Phone == "":
		fe.add("phone", "is required")
	case len(digits) < 9 || len(digits) > 15 || !allDigits(strings.TrimPrefix(digits, "+")):
		fe.add("phone", "must be a phone number")
	}

	if c.Email != nil {
		if _, err := mail.ParseAddress(*c.Email); err != nil {
			fe.add("email", "must be an email address")
		}
	}

	channel := strings.TrimSpace(in.LetterChannel)
	destination := strings.TrimSpace(in.LetterDestination)
	switch {
	case channel == "" && destination == "":
	case channel == "":
		fe.add("letter_channel", "is required when a letter destination is given")
	case destination == "":
		fe.add("letter_destination", "is required when a letter channel is given")
	default:
		dc, err := ParseDeliveryChannel(channel)
		if err != nil {
			fe.add("letter_channel", "must be EMAIL or POST")
			break
		}
		c.Letter = &LetterPreference{Channel: dc, Destination: destination}
	}
	return c
}

// IncidentInput is the raw incident section of a submission.
type IncidentInput struct {
	ProductName  string `json:"product_name"`
	ShopName     string `json:"shop_name"`
	Location     string `json:"location"`
	IncidentDate string `json:"incident_date"`
	Damage       string `json:"damage"`
	Details      string `json:"details"`
}

func (in IncidentInput) parse(fe fieldErrors) Incident {
	return Incident{
		ProductName:   requiredText(fe, "product_name", in.ProductName),
		ShopName:      optionalText(fe, "shop_name", in.ShopName, maxTextLength),
		Location:      optionalText(fe, "location", in.Location, maxDetailLength),
		IncidentDate:  optionalDate(fe, "incident_date", in.IncidentDate),
		Damage:        optionalText(fe, "damage", in.Damage, maxDetailLength),
		Details:       optionalText(fe, "details", in.Details, maxDetailLength),
		EvidenceFiles: []string{},
	}
}

// IntakeInput is the raw intake section written on accept or manual entry.
type IntakeInput struct {
	ComplaintNumber     string   `json:"complaint_number"`
	ReceivedDate        string   `json:"received_date"`
	OriginalDocNumber   string   `json:"original_doc_number"`
	OriginalDocDate     string   `json:"original_doc_date"`
	Channel             string   `json:"channel"`
	ComplaintType       string   `json:"complaint_type"`
	District            string   `json:"district"`
	RelatedActs         []string `json:"related_acts"`
	IsSafetyHealth      bool     `json:"is_safety_health"`
	ResponsiblePersonID string   `json:"responsible_person_id"`
}

func (in IntakeInput) parse(fe fieldErrors) Intake {
	number := requiredText(fe, "complaint_number", in.ComplaintNumber)
	intake := Intake{
		ReceivedDate:      requiredDate(fe, "received_date", in.ReceivedDate),
		OriginalDocNumber: optionalText(fe, "original_doc_number", in.OriginalDocNumber, maxTextLength),
		OriginalDocDate:   optionalDate(fe, "original_doc_date", in.OriginalDocDate),
		District:          optionalText(fe, "district", in.District, maxTextLength),
		RelatedActs:       pstrings.DedupeAndTrim(in.RelatedActs),
		IsSafetyHealth:    in.IsSafetyHealth,
	}
	if number != "" {
		intake.ComplaintNumber = &number
	}
	if intake.RelatedActs == nil {
		intake.RelatedActs = []string{}
	}

	if v := strings.TrimSpace(in.Channel); v == "" {
		fe.add("channel", "is required")
	} else if ch, err := ParseChannel(v); err != nil {
		fe.add("channel", "must be one of ONLINE, PHONE, LETTER, WALK_IN")
	} else {
		intake.Channel = &ch
	}

	if v := strings.TrimSpace(in.ComplaintType); v == "" {
		fe.add("complaint_type", "is required")
	} else if ct, err := ParseComplaintType(v); err != nil {
		fe.add("complaint_type", "must be ARREST or GENERAL")
	} else {
		intake.Type = &ct
	}

	for _, act := range intake.RelatedActs {
		if !IsKnownAct(act) {
			fe.add("related_acts", "contains an unknown act: "+act)
			break
		}
	}

	if v := strings.TrimSpace(in.ResponsiblePersonID); v != "" {
		officer, err := id.ParseStaffID(v)
		if err != nil {
			fe.add("responsible_person_id", "must be a staff id")
		} else {
			intake.ResponsiblePersonID = &officer
		}
	}
	return intake
}

// -----------------------------------------------------------------------------
// Operation requests
// -----------------------------------------------------------------------------

// SubmitRequest is a public complaint submission.
type SubmitRequest struct {
	Complainant ComplainantInput
	Incident    IncidentInput
	Files       []blob.File

	complainant Complainant
	incident    Incident
}

// Validate checks every field and reports all problems at once.
func (r *SubmitRequest) Validate() error {
	fe := fieldErrors{}
	r.complainant = r.Complainant.parse(fe)
	r.incident = r.Incident.parse(fe)
	return fe.err()
}

func (r *SubmitRequest) ParsedComplainant() Complainant { return r.complainant }
func (r *SubmitRequest) ParsedIncident() Incident       { return r.incident }

// ManualCreateRequest is a staff-entered complaint carrying intake facts.
type ManualCreateRequest struct {
	Complainant ComplainantInput
	Incident    IncidentInput
	Intake      IntakeInput
	Files       []blob.File
	OriginalDoc *blob.File

	complainant Complainant
	incident    Incident
	intake      Intake
}

func (r *ManualCreateRequest) Validate() error {
	fe := fieldErrors{}
	r.complainant = r.Complainant.parse(fe)
	r.incident = r.Incident.parse(fe)
	r.intake = r.Intake.parse(fe)
	return fe.err()
}

func (r *ManualCreateRequest) ParsedComplainant() Complainant { return r.complainant }
func (r *ManualCreateRequest) ParsedIncident() Incident       { return r.incident }
func (r *ManualCreateRequest) ParsedIntake() Intake           { return r.intake }

// AcceptRequest moves a pending complaint to IN_PROGRESS with intake facts.
type AcceptRequest struct {
	ID          id.ComplaintID
	Intake      IntakeInput
	OriginalDoc *blob.File

	intake Intake
}

func (r *AcceptRequest) Validate() error {
	fe := fieldErrors{}
	r.intake = r.Intake.parse(fe)
	return fe.err()
}

func (r *AcceptRequest) ParsedIntake() Intake { return r.intake }

// RejectRequest closes a complaint as REJECTED. Reason is shown to the complainant.
type RejectRequest struct {
	ID     id.ComplaintID `json:"-"`
	Reason string         `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	fe := fieldErrors{}
	// blank check only; the reason is stored as written
	if strings.TrimSpace(r.Reason) == "" {
		fe.add("reason", "is required")
	} else if utf8.RuneCountInString(r.Reason) > maxDetailLength {
		fe.add("reason", "is too long")
	}
	return fe.err()
}

// AssignRequest sets the responsible officer.
type AssignRequest struct {
	ID        id.ComplaintID `json:"-"`
	OfficerID string         `json:"officer_id"`

	officerID id.StaffID
}

func (r *AssignRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	fe := fieldErrors{}
	officer, err := id.ParseStaffID(r.OfficerID)
	if err != nil {
		fe.add("officer_id", "must be a staff id")
	}
	r.officerID = officer
	return fe.err()
}

func (r *AssignRequest) ParsedOfficerID() id.StaffID { return r.officerID }

// InvestigationRequest records an investigation outcome.
type InvestigationRequest struct {
	ID                id.ComplaintID
	InvestigationDate string
	IsGuilty          string
	LegalAction       string
	Fines             []FineEntry
	ResponseDocNumber string
	ResponseDocDate   string
	Notes             string
	StatusUpdate      string
	ResponseDoc       *blob.File
	EvidenceFiles     []blob.File

	investigation Investigation
	nextStatus    Status
}

func (r *InvestigationRequest) Validate() error {
	fe := fieldErrors{}
	inv := Investigation{
		InvestigationDate: requiredDate(fe, "investigation_date", r.InvestigationDate),
		ResponseDocNumber: optionalText(fe, "response_doc_number", r.ResponseDocNumber, maxTextLength),
		ResponseDocDate:   optionalDate(fe, "response_doc_date", r.ResponseDocDate),
		Notes:             optionalText(fe, "investigation_notes", r.Notes, maxDetailLength),
	}

	if v := strings.TrimSpace(r.IsGuilty); v != "" {
		guilty, err := strconv.ParseBool(v)
		if err != nil {
			fe.add("is_guilty", "must be true or false")
		} else {
			inv.IsGuilty = &guilty
		}
	}

	if v := strings.TrimSpace(r.LegalAction); v == "" {
		fe.add("legal_action", "is required")
	} else if la, err := ParseLegalAction(v); err != nil {
		fe.add("legal_action", "must be NONE, FINE or PROSECUTION")
	} else {
		inv.LegalAction = &la
	}

	if len(r.Fines) > MaxFineEntries {
		fe.add("fines", "at most 3 fine entries are allowed")
	}

	switch v := strings.TrimSpace(r.StatusUpdate); Status(v) {
	case StatusInProgress, StatusResolved:
		r.nextStatus = Status(v)
	case "":
		r.nextStatus = StatusInProgress
	default:
		fe.add("status_update", "must be IN_PROGRESS or RESOLVED")
	}

	r.investigation = inv
	return fe.err()
}

func (r *InvestigationRequest) ParsedInvestigation() Investigation { return r.investigation }
func (r *InvestigationRequest) ParsedNextStatus() Status           { return r.nextStatus }

// ParsedLegalAction returns the validated legal action kind.
func (r *InvestigationRequest) ParsedLegalAction() LegalAction {
	if r.investigation.LegalAction == nil {
		return LegalActionNone
	}
	return *r.investigation.LegalAction
}

// ListFilter selects complaints for the staff work queue.
type ListFilter struct {
	Status    *Status
	OfficerID *id.StaffID
	Search    string
	Limit     int
	Offset    int
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Normalize clamps paging values.
func (f *ListFilter) Normalize() {
	f.Search = strings.TrimSpace(f.Search)
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
