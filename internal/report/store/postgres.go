package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"complaintdesk/internal/complaint/models"
	complaintstore "complaintdesk/internal/complaint/store"
	id "complaintdesk/pkg/domain"
)

// PostgresSource reads report rows from the complaints schema.
type PostgresSource struct {
	db  *sql.DB
	loc *time.Location
}

// NewPostgres creates a source. loc is the zone received dates are compared in.
func NewPostgres(db *sql.DB, loc *time.Location) *PostgresSource {
	return &PostgresSource{db: db, loc: loc}
}

// ComplaintFacts returns complaints of every status whose effective date lies
// in r. Received dates are DATE columns and are compared as calendar dates.
func (s *PostgresSource) ComplaintFacts(ctx context.Context, r Range) ([]ComplaintFact, error) {
	query := `
		SELECT id, status, received_date, created_at, investigation_date, district,
		       channel, related_acts, is_safety_health, responsible_person_id
		FROM complaints`
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	received := []string{"received_date IS NOT NULL"}
	created := []string{"received_date IS NULL"}
	if !r.From.IsZero() {
		received = append(received, "received_date >= "+next(r.From.In(s.loc).Format(dateLayout))+"::date")
		created = append(created, "created_at >= "+next(r.From))
	}
	if !r.To.IsZero() {
		received = append(received, "received_date <= "+next(r.To.In(s.loc).Format(dateLayout))+"::date")
		created = append(created, "created_at <= "+next(r.To))
	}
	if !r.Unbounded() {
		query += `
		WHERE (` + strings.Join(received, " AND ") + `)
		   OR (` + strings.Join(created, " AND ") + `)`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query complaint facts: %w", err)
	}
	defer rows.Close()

	facts := []ComplaintFact{}
	for rows.Next() {
		var (
			f        ComplaintFact
			status   string
			district sql.NullString
			channel  sql.NullString
			acts     sql.NullString
			received sql.NullTime
			invDate  sql.NullTime
			officer  sql.NullInt64
		)
		if err := rows.Scan(&f.ID, &status, &received, &f.CreatedAt, &invDate, &district,
			&channel, &acts, &f.IsSafetyHealth, &officer); err != nil {
			return nil, fmt.Errorf("scan complaint fact: %w", err)
		}
		f.Status = models.Status(status)
		if received.Valid {
			f.ReceivedDate = &received.Time
		}
		if invDate.Valid {
			f.InvestigationDate = &invDate.Time
		}
		if district.Valid && strings.TrimSpace(district.String) != "" {
			f.District = &district.String
		}
		if channel.Valid && channel.String != "" {
			ch := models.Channel(channel.String)
			f.Channel = &ch
		}
		if acts.Valid {
			f.RelatedActs = complaintstore.DecodeList(&acts.String)
		} else {
			f.RelatedActs = complaintstore.DecodeList(nil)
		}
		if officer.Valid {
			staff := id.StaffID(officer.Int64)
			f.ResponsiblePersonID = &staff
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaint facts: %w", err)
	}
	return facts, nil
}

// FineFacts returns fine rows created within r that match filter. Fines of
// rejected complaints are left out.
func (s *PostgresSource) FineFacts(ctx context.Context, r Range, filter FineFilter) ([]FineFact, error) {
	conds := []string{"c.status <> $1"}
	args := []any{string(models.StatusRejected)}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !r.From.IsZero() {
		conds = append(conds, "f.created_at >= "+next(r.From))
	}
	if !r.To.IsZero() {
		conds = append(conds, "f.created_at <= "+next(r.To))
	}
	if filter.Act != "" {
		conds = append(conds, "f.act_name = "+next(filter.Act))
	}
	if filter.Section != "" {
		conds = append(conds, "strpos(f.section, "+next(filter.Section)+") > 0")
	}

	query := `
		SELECT f.complaint_id, f.act_name, f.section, f.amount, f.created_at
		FROM investigation_fines f
		JOIN complaints c ON c.id = f.complaint_id
		WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY f.created_at, f.id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query fine facts: %w", err)
	}
	defer rows.Close()

	fines := []FineFact{}
	for rows.Next() {
		var f FineFact
		if err := rows.Scan(&f.ComplaintID, &f.ActName, &f.Section, &f.Amount, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fine fact: %w", err)
		}
		fines = append(fines, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fine facts: %w", err)
	}
	return fines, nil
}
