//go:build integration

package ledger_test

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"complaintdesk/internal/complaint/ledger"
	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/complaint/store"
	"complaintdesk/pkg/platform/tx"
	"complaintdesk/pkg/testutil/containers"
)

type PostgresLedgerSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	sync     *ledger.Synchronizer
}

func TestPostgresLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.sync = ledger.New(s.store, tx.NewRunner(s.postgres.DB, 5*time.Second))
}

func (s *PostgresLedgerSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "investigation_fines", "complaints"))
}

func (s *PostgresLedgerSuite) sections(ctx context.Context, c *models.Complaint) []string {
	fines, err := s.store.ListFines(ctx, c.ID)
	s.Require().NoError(err)
	out := make([]string, 0, len(fines))
	for _, f := range fines {
		out = append(out, f.Section)
	}
	return out
}

func (s *PostgresLedgerSuite) TestConcurrentSyncsKeepOneEntrySet() {
	ctx := context.Background()
	c := models.NewSubmitted(
		models.Complainant{Name: "สมชาย", NationalID: "1234567890123", Phone: "0812345678"},
		models.Incident{ProductName: "ครีม"},
		time.Now(),
	)
	s.Require().NoError(s.store.Create(ctx, c))

	first := []models.FineEntry{{Act: "ยา", Section: "a1", Amount: "100"}, {Act: "ยา", Section: "a2", Amount: "200"}}
	second := []models.FineEntry{{Act: "อาหาร", Section: "b1", Amount: "5000"}}

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		for _, entries := range [][]models.FineEntry{first, second} {
			wg.Add(1)
			go func(entries []models.FineEntry) {
				defer wg.Done()
				_, err := s.sync.Sync(ctx, c.ID, models.LegalActionFine, entries)
				s.NoError(err)
			}(entries)
		}
		wg.Wait()

		got := s.sections(ctx, c)
		s.Require().True(slices.Equal(got, []string{"a1", "a2"}) || slices.Equal(got, []string{"b1"}),
			"round %d left %v", round, got)
	}
}
