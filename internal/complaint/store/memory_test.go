package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) submit() *models.Complaint {
	c := models.NewSubmitted(
		models.Complainant{Name: "สมชาย", NationalID: "1234567890123", Phone: "0812345678"},
		models.Incident{ProductName: "ครีม", EvidenceFiles: []string{"memory://a.jpg"}},
		s.now,
	)
	s.Require().NoError(s.store.Create(s.ctx, c))
	return c
}

func (s *InMemoryStoreSuite) intake(number string) models.Intake {
	received := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	ch := models.ChannelOnline
	return models.Intake{ComplaintNumber: &number, ReceivedDate: &received, Channel: &ch, RelatedActs: []string{"อาหาร"}}
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	c := s.submit()
	s.NotZero(c.ID)

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusPending, found.Status)
	s.Equal([]string{"memory://a.jpg"}, found.Incident.EvidenceFiles)

	_, err = s.store.FindByID(s.ctx, id.ComplaintID(999))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestAcceptKeepsStoredDocumentPath() {
	c := s.submit()
	intake := s.intake("C-2024-001")
	path := "memory://docs/original.pdf"
	intake.OriginalDocPath = &path
	s.Require().NoError(s.store.Accept(s.ctx, c.ID, intake, s.now))

	// force back to PENDING to accept again without a file
	s.store.complaints[c.ID].Status = models.StatusPending
	s.Require().NoError(s.store.Accept(s.ctx, c.ID, s.intake("C-2024-001"), s.now))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found.Intake.OriginalDocPath)
	s.Equal(path, *found.Intake.OriginalDocPath)
	s.Equal(models.StatusInProgress, found.Status)
}

func (s *InMemoryStoreSuite) TestGuardedUpdates() {
	c := s.submit()

	s.Run("investigation requires in progress", func() {
		err := s.store.SaveInvestigation(s.ctx, c.ID, models.Investigation{}, models.StatusResolved, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("reject guarded by allowed statuses", func() {
		s.Require().NoError(s.store.Accept(s.ctx, c.ID, s.intake("C-1"), s.now))
		err := s.store.Reject(s.ctx, c.ID, "ซ้ำ", []models.Status{models.StatusPending}, s.now)
		s.ErrorIs(err, sentinel.ErrInvalidState)
		s.Require().NoError(s.store.Reject(s.ctx, c.ID, "ซ้ำ", nil, s.now))
	})

	s.Run("unknown complaint", func() {
		err := s.store.Assign(s.ctx, id.ComplaintID(42), id.StaffID(7), nil, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate complaint number", func() {
		other := s.submit()
		err := s.store.Accept(s.ctx, other.ID, s.intake("C-1"), s.now)
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestSaveInvestigationAppendsOnlyWhenGiven() {
	c := s.submit()
	s.Require().NoError(s.store.Accept(s.ctx, c.ID, s.intake("C-2"), s.now))

	doc := "memory://resp.pdf"
	s.Require().NoError(s.store.SaveInvestigation(s.ctx, c.ID, models.Investigation{
		ResponseDocPath:     &doc,
		ActionEvidenceFiles: []string{"memory://e1.jpg"},
	}, models.StatusInProgress, s.now))
	s.Require().NoError(s.store.SaveInvestigation(s.ctx, c.ID, models.Investigation{}, models.StatusInProgress, s.now))

	found, err := s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(&doc, found.Investigation.ResponseDocPath)
	s.Equal([]string{"memory://e1.jpg"}, found.Investigation.ActionEvidenceFiles)

	s.Require().NoError(s.store.SaveInvestigation(s.ctx, c.ID, models.Investigation{
		ActionEvidenceFiles: []string{"memory://e2.jpg"},
	}, models.StatusInProgress, s.now))
	found, err = s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal([]string{"memory://e1.jpg", "memory://e2.jpg"}, found.Investigation.ActionEvidenceFiles)
}

func (s *InMemoryStoreSuite) TestRunInTxRestoresFinesOnError() {
	c := s.submit()
	fine := models.Fine{Act: "อาหาร", Section: "25(1)", Amount: decimal.NewFromInt(5000)}
	s.Require().NoError(s.store.InsertFine(s.ctx, c.ID, fine, s.now))

	boom := errors.New("boom")
	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		s.Require().NoError(s.store.DeleteFines(ctx, c.ID))
		return boom
	})
	s.ErrorIs(err, boom)

	fines, err := s.store.ListFines(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(fines, 1)
	s.True(fines[0].Amount.Equal(decimal.NewFromInt(5000)))
}

func (s *InMemoryStoreSuite) TestListFiltersAndPages() {
	first := s.submit()
	s.now = s.now.Add(time.Hour)
	second := s.submit()
	s.Require().NoError(s.store.Assign(s.ctx, second.ID, id.StaffID(7), nil, s.now))

	all, total, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(second.ID, all[0].ID)
	s.Equal(first.ID, all[1].ID)

	officer := id.StaffID(7)
	mine, total, err := s.store.List(s.ctx, models.ListFilter{OfficerID: &officer})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Equal(second.ID, mine[0].ID)

	page, total, err := s.store.List(s.ctx, models.ListFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Require().Len(page, 1)
	s.Equal(first.ID, page[0].ID)
}
