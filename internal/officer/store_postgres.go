package officer

import (
	"context"
	"database/sql"
	"fmt"

	id "complaintdesk/pkg/domain"
)

// PostgresStore reads officers from the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ListActive returns active users with role, ordered by full name.
func (s *PostgresStore) ListActive(ctx context.Context, role id.Role) ([]*Officer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, full_name, role, is_active
		FROM users
		WHERE role = $1 AND is_active
		ORDER BY full_name, id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	defer rows.Close()

	officers := []*Officer{}
	for rows.Next() {
		o := &Officer{}
		var roleName string
		if err := rows.Scan(&o.ID, &o.Username, &o.FullName, &roleName, &o.IsActive); err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		o.Role = id.Role(roleName)
		officers = append(officers, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate officers: %w", err)
	}
	return officers, nil
}

// Create inserts a user and assigns its ID. Used for seeding and tests.
func (s *PostgresStore) Create(ctx context.Context, o *Officer) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, full_name, role, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`, o.Username, o.FullName, string(o.Role), o.IsActive).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("create officer: %w", err)
	}
	return nil
}
