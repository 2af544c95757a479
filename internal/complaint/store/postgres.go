// Package store persists complaints and their fine rows.
//
// Multi-valued fields (evidence lists, related acts) are JSON arrays in TEXT
// columns. That encoding stops at this package: models only ever see slices.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/platform/postgres"
	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/platform/sentinel"
	txcontext "complaintdesk/pkg/platform/tx"
)

// PostgresStore persists complaints and investigation fines in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed complaint store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const complaintColumns = `
	id, complainant_name, national_id, phone, email, address, letter_channel, letter_destination,
	product_name, shop_name, location, incident_date, damage, details, evidence_files,
	complaint_number, received_date, original_doc_number, original_doc_date, original_doc_path,
	channel, complaint_type, district, related_acts, is_safety_health, responsible_person_id,
	investigation_date, is_guilty, legal_action, response_doc_number, response_doc_date,
	response_doc_path, investigation_notes, action_evidence_files,
	status, rejection_reason, created_at, updated_at`

// Create inserts a complaint and assigns its ID.
func (s *PostgresStore) Create(ctx context.Context, c *models.Complaint) error {
	if c == nil {
		return fmt.Errorf("complaint is required")
	}
	var letterChannel, letterDestination *string
	if c.Complainant.Letter != nil {
		ch := string(c.Complainant.Letter.Channel)
		letterChannel, letterDestination = &ch, &c.Complainant.Letter.Destination
	}

	query := `
		INSERT INTO complaints (
			complainant_name, national_id, phone, email, address, letter_channel, letter_destination,
			product_name, shop_name, location, incident_date, damage, details, evidence_files,
			complaint_number, received_date, original_doc_number, original_doc_date, original_doc_path,
			channel, complaint_type, district, related_acts, is_safety_health, responsible_person_id,
			action_evidence_files, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25,
			$26, $27, $28, $29
		)
		RETURNING id`

	err := s.execer(ctx).QueryRowContext(ctx, query,
		c.Complainant.Name, c.Complainant.NationalID, c.Complainant.Phone,
		c.Complainant.Email, c.Complainant.Address, letterChannel, letterDestination,
		c.Incident.ProductName, c.Incident.ShopName, c.Incident.Location, c.Incident.IncidentDate,
		c.Incident.Damage, c.Incident.Details, EncodeList(c.Incident.EvidenceFiles),
		c.Intake.ComplaintNumber, c.Intake.ReceivedDate, c.Intake.OriginalDocNumber,
		c.Intake.OriginalDocDate, c.Intake.OriginalDocPath,
		c.Intake.Channel, c.Intake.Type, c.Intake.District, EncodeList(c.Intake.RelatedActs),
		c.Intake.IsSafetyHealth, c.Intake.ResponsiblePersonID,
		EncodeList(c.Investigation.ActionEvidenceFiles), string(c.Status), c.CreatedAt, c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", postgres.TranslateError(err))
	}
	return nil
}

// FindByID returns the complaint or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, complaintID id.ComplaintID) (*models.Complaint, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, int64(complaintID))
	c, err := scanComplaint(row)
	if err != nil {
		return nil, fmt.Errorf("find complaint: %w", postgres.TranslateError(err))
	}
	return c, nil
}

// List returns one page of complaints, newest first, and the total match count.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Complaint, int, error) {
	filter.Normalize()

	var where []string
	var args []any
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.OfficerID != nil {
		args = append(args, int64(*filter.OfficerID))
		where = append(where, fmt.Sprintf("responsible_person_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			"(complainant_name ILIKE $%d OR product_name ILIKE $%d OR shop_name ILIKE $%d OR complaint_number ILIKE $%d)",
			n, n, n, n))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.execer(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM complaints`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`SELECT %s FROM complaints%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		complaintColumns, clause, len(args)-1, len(args))
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Complaint, 0, filter.Limit)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan complaint: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, total, nil
}

// Accept writes intake facts and moves a PENDING complaint to IN_PROGRESS.
// original_doc_path and responsible_person_id are only written when set, so an
// accept without a new document keeps the stored path.
func (s *PostgresStore) Accept(ctx context.Context, complaintID id.ComplaintID, intake models.Intake, now time.Time) error {
	set := &setList{}
	set.add("complaint_number", intake.ComplaintNumber)
	set.add("received_date", intake.ReceivedDate)
	set.add("original_doc_number", intake.OriginalDocNumber)
	set.add("original_doc_date", intake.OriginalDocDate)
	set.add("channel", intake.Channel)
	set.add("complaint_type", intake.Type)
	set.add("district", intake.District)
	set.add("related_acts", EncodeList(intake.RelatedActs))
	set.add("is_safety_health", intake.IsSafetyHealth)
	if intake.OriginalDocPath != nil {
		set.add("original_doc_path", *intake.OriginalDocPath)
	}
	if intake.ResponsiblePersonID != nil {
		set.add("responsible_person_id", int64(*intake.ResponsiblePersonID))
	}
	set.add("status", string(models.StatusInProgress))
	set.add("updated_at", now)

	return s.update(ctx, complaintID, set, []models.Status{models.StatusPending})
}

// Reject sets status REJECTED with reason. allowed guards the current status;
// nil allows any.
func (s *PostgresStore) Reject(ctx context.Context, complaintID id.ComplaintID, reason string, allowed []models.Status, now time.Time) error {
	set := &setList{}
	set.add("status", string(models.StatusRejected))
	set.add("rejection_reason", reason)
	set.add("updated_at", now)
	return s.update(ctx, complaintID, set, allowed)
}

// Assign sets the responsible officer. allowed guards the current status; nil allows any.
func (s *PostgresStore) Assign(ctx context.Context, complaintID id.ComplaintID, officerID id.StaffID, allowed []models.Status, now time.Time) error {
	set := &setList{}
	set.add("responsible_person_id", int64(officerID))
	set.add("updated_at", now)
	return s.update(ctx, complaintID, set, allowed)
}

// SaveInvestigation writes investigation facts and the next status. The
// response document path is written only when set. inv.ActionEvidenceFiles
// are appended to the stored array in the same statement, so concurrent saves
// never drop each other's uploads.
func (s *PostgresStore) SaveInvestigation(ctx context.Context, complaintID id.ComplaintID, inv models.Investigation, next models.Status, now time.Time) error {
	set := &setList{}
	set.add("investigation_date", inv.InvestigationDate)
	set.add("is_guilty", inv.IsGuilty)
	set.add("legal_action", inv.LegalAction)
	set.add("response_doc_number", inv.ResponseDocNumber)
	set.add("response_doc_date", inv.ResponseDocDate)
	set.add("investigation_notes", inv.Notes)
	if inv.ResponseDocPath != nil {
		set.add("response_doc_path", *inv.ResponseDocPath)
	}
	if len(inv.ActionEvidenceFiles) > 0 {
		set.addExpr("action_evidence_files",
			"(COALESCE(NULLIF(action_evidence_files, ''), '[]')::jsonb || $%d::jsonb)::text",
			EncodeList(inv.ActionEvidenceFiles))
	}
	set.add("status", string(next))
	set.add("updated_at", now)

	return s.update(ctx, complaintID, set, []models.Status{models.StatusInProgress})
}

// update runs a guarded UPDATE. Zero affected rows is resolved to
// ErrNotFound or ErrInvalidState.
func (s *PostgresStore) update(ctx context.Context, complaintID id.ComplaintID, set *setList, allowed []models.Status) error {
	args := append(set.args, int64(complaintID))
	query := fmt.Sprintf(`UPDATE complaints SET %s WHERE id = $%d`, strings.Join(set.cols, ", "), len(args))
	if allowed != nil {
		statuses := make([]string, len(allowed))
		for i, st := range allowed {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		query += fmt.Sprintf(` AND status = ANY($%d)`, len(args))
	}

	res, err := s.execer(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update complaint: %w", postgres.TranslateError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update complaint: %w", err)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = s.execer(ctx).QueryRowContext(ctx, `SELECT status FROM complaints WHERE id = $1`, int64(complaintID)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check complaint status: %w", err)
	}
	return fmt.Errorf("%w: complaint is %s", sentinel.ErrInvalidState, status)
}

// LockComplaint takes a row lock on the complaint for the surrounding
// transaction. Outside a transaction the lock is released immediately.
func (s *PostgresStore) LockComplaint(ctx context.Context, complaintID id.ComplaintID) error {
	var locked int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT id FROM complaints WHERE id = $1 FOR UPDATE`, int64(complaintID)).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock complaint: %w", err)
	}
	return nil
}

// DeleteFines removes every fine row of a complaint.
func (s *PostgresStore) DeleteFines(ctx context.Context, complaintID id.ComplaintID) error {
	if _, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM investigation_fines WHERE complaint_id = $1`, int64(complaintID)); err != nil {
		return fmt.Errorf("delete fines: %w", err)
	}
	return nil
}

// InsertFine adds one fine row.
func (s *PostgresStore) InsertFine(ctx context.Context, complaintID id.ComplaintID, fine models.Fine, now time.Time) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO investigation_fines (complaint_id, act_name, section, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		int64(complaintID), fine.Act, fine.Section, fine.Amount, now)
	if err != nil {
		return fmt.Errorf("insert fine: %w", postgres.TranslateError(err))
	}
	return nil
}

// ListFines returns the fine rows of a complaint in insertion order.
func (s *PostgresStore) ListFines(ctx context.Context, complaintID id.ComplaintID) ([]*models.InvestigationFine, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, complaint_id, act_name, section, amount, created_at
		FROM investigation_fines
		WHERE complaint_id = $1
		ORDER BY id`, int64(complaintID))
	if err != nil {
		return nil, fmt.Errorf("list fines: %w", err)
	}
	defer rows.Close()

	fines := []*models.InvestigationFine{}
	for rows.Next() {
		f := &models.InvestigationFine{}
		if err := rows.Scan(&f.ID, &f.ComplaintID, &f.ActName, &f.Section, &f.Amount, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fine: %w", err)
		}
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fines: %w", err)
	}
	return fines, nil
}

// setList accumulates "col = $n" assignments for a dynamic UPDATE.
type setList struct {
	cols []string
	args []any
}

func (s *setList) add(col string, value any) {
	s.addExpr(col, "$%d", value)
}

// addExpr sets col to expr, where expr holds one %d for the value's placeholder.
func (s *setList) addExpr(col, expr string, value any) {
	s.args = append(s.args, value)
	s.cols = append(s.cols, col+" = "+fmt.Sprintf(expr, len(s.args)))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComplaint(row rowScanner) (*models.Complaint, error) {
	var (
		c                                           models.Complaint
		letterChannel, letterDestination            *string
		evidence, relatedActs, actionEvidence       *string
		channel, complaintType, legalAction, status *string
		responsible                                 *int64
	)
	err := row.Scan(
		&c.ID, &c.Complainant.Name, &c.Complainant.NationalID, &c.Complainant.Phone,
		&c.Complainant.Email, &c.Complainant.Address, &letterChannel, &letterDestination,
		&c.Incident.ProductName, &c.Incident.ShopName, &c.Incident.Location, &c.Incident.IncidentDate,
		&c.Incident.Damage, &c.Incident.Details, &evidence,
		&c.Intake.ComplaintNumber, &c.Intake.ReceivedDate, &c.Intake.OriginalDocNumber,
		&c.Intake.OriginalDocDate, &c.Intake.OriginalDocPath,
		&channel, &complaintType, &c.Intake.District, &relatedActs, &c.Intake.IsSafetyHealth, &responsible,
		&c.Investigation.InvestigationDate, &c.Investigation.IsGuilty, &legalAction,
		&c.Investigation.ResponseDocNumber, &c.Investigation.ResponseDocDate,
		&c.Investigation.ResponseDocPath, &c.Investigation.Notes, &actionEvidence,
		&status, &c.RejectionReason, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Incident.EvidenceFiles = DecodeList(evidence)
	c.Intake.RelatedActs = DecodeList(relatedActs)
	c.Investigation.ActionEvidenceFiles = DecodeList(actionEvidence)

	if letterChannel != nil && letterDestination != nil {
		c.Complainant.Letter = &models.LetterPreference{
			Channel:     models.DeliveryChannel(*letterChannel),
			Destination: *letterDestination,
		}
	}
	if channel != nil {
		ch := models.Channel(*channel)
		c.Intake.Channel = &ch
	}
	if complaintType != nil {
		ct := models.ComplaintType(*complaintType)
		c.Intake.Type = &ct
	}
	if legalAction != nil {
		la := models.LegalAction(*legalAction)
		c.Investigation.LegalAction = &la
	}
	if responsible != nil {
		officer := id.StaffID(*responsible)
		c.Intake.ResponsiblePersonID = &officer
	}
	if status != nil {
		c.Status = models.Status(*status)
	}
	return &c, nil
}
