package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"complaintdesk/pkg/platform/sentinel"
)

func TestTranslateError(t *testing.T) {
	assert.NoError(t, TranslateError(nil))
	assert.ErrorIs(t, TranslateError(sql.ErrNoRows), sentinel.ErrNotFound)
	assert.ErrorIs(t, TranslateError(fmt.Errorf("scan: %w", sql.ErrNoRows)), sentinel.ErrNotFound)

	dup := &pq.Error{Code: "23505", Constraint: "complaints_complaint_number_key"}
	err := TranslateError(dup)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Contains(t, err.Error(), "complaints_complaint_number_key")

	other := errors.New("connection reset")
	assert.Equal(t, other, TranslateError(other))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
