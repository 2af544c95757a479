package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"complaintdesk/internal/blob"
	"complaintdesk/internal/complaint/ledger"
	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/complaint/service/mocks"
	"complaintdesk/internal/complaint/store"
	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *store.InMemory
	uploader *mocks.MockUploader
	notifier *mocks.MockNotifier
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = store.NewInMemory()
	s.uploader = mocks.NewMockUploader(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.service = New(s.store, ledger.New(s.store, s.store), s.uploader, WithNotifier(s.notifier))

	now := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), now)
	s.ctx = requestcontext.WithStaff(s.ctx, id.StaffID(1), id.RoleAdmin)
}

func (s *ServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func file(name string) blob.File {
	return blob.File{Name: name, Size: 3, Content: strings.NewReader("abc")}
}

func submitRequest(files ...blob.File) *models.SubmitRequest {
	return &models.SubmitRequest{
		Complainant: models.ComplainantInput{Name: "สมชาย ใจดี", NationalID: "1234567890123", Phone: "0812345678"},
		Incident:    models.IncidentInput{ProductName: "ครีมหน้าขาว"},
		Files:       files,
	}
}

func acceptRequest(complaintID id.ComplaintID) *models.AcceptRequest {
	return &models.AcceptRequest{ID: complaintID, Intake: models.IntakeInput{
		ComplaintNumber: fmt.Sprintf("C-2024-%03d", complaintID),
		ReceivedDate:    "2024-01-10",
		Channel:         "ONLINE",
		ComplaintType:   "GENERAL",
		District:        "บางพลี",
		RelatedActs:     []string{"อาหาร"},
	}}
}

func (s *ServiceSuite) submitted() *models.Complaint {
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	c, err := s.service.Submit(s.ctx, submitRequest())
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) accepted() *models.Complaint {
	c := s.submitted()
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
	c, err := s.service.Accept(s.ctx, acceptRequest(c.ID))
	s.Require().NoError(err)
	return c
}

func (s *ServiceSuite) TestSubmit() {
	s.Run("uploads sequentially and skips failed files", func() {
		first, second, third := file("a.jpg"), file("b.jpg"), file("c.jpg")
		gomock.InOrder(
			s.uploader.EXPECT().Upload(gomock.Any(), prefixEvidence, gomock.Any()).Return("http://blob/a.jpg", nil),
			s.uploader.EXPECT().Upload(gomock.Any(), prefixEvidence, gomock.Any()).Return("", errors.New("minio down")),
			s.uploader.EXPECT().Upload(gomock.Any(), prefixEvidence, gomock.Any()).Return("http://blob/c.jpg", nil),
		)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("kafka down"))

		c, err := s.service.Submit(s.ctx, submitRequest(first, second, third))
		s.Require().NoError(err)
		s.Equal(models.StatusPending, c.Status)
		s.Equal([]string{"http://blob/a.jpg", "http://blob/c.jpg"}, c.Incident.EvidenceFiles)
		s.Nil(c.Intake.ComplaintNumber)
	})

	s.Run("validation fails before any upload or write", func() {
		req := submitRequest(file("a.jpg"))
		req.Complainant.NationalID = "123"

		_, err := s.service.Submit(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Contains(dErrors.FieldsOf(err), "national_id")

		_, total, listErr := s.store.List(s.ctx, models.ListFilter{})
		s.Require().NoError(listErr)
		s.Equal(1, total)
	})
}

func (s *ServiceSuite) TestCreateManualStartsInProgress() {
	s.uploader.EXPECT().Upload(gomock.Any(), prefixOriginalDoc, gomock.Any()).Return("http://blob/doc.pdf", nil)
	doc := file("doc.pdf")

	c, err := s.service.CreateManual(s.ctx, &models.ManualCreateRequest{
		Complainant: submitRequest().Complainant,
		Incident:    models.IncidentInput{ProductName: "อาหารเสริม"},
		Intake:      acceptRequest(0).Intake,
		OriginalDoc: &doc,
	})
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, c.Status)
	s.Equal("http://blob/doc.pdf", *c.Intake.OriginalDocPath)
	s.Equal("C-2024-000", *c.Intake.ComplaintNumber)
}

func (s *ServiceSuite) TestAccept() {
	s.Run("uploads a supplied document", func() {
		c := s.submitted()
		doc := file("original.pdf")
		req := acceptRequest(c.ID)
		req.OriginalDoc = &doc
		s.uploader.EXPECT().Upload(gomock.Any(), prefixOriginalDoc, gomock.Any()).Return("http://blob/original.pdf", nil)
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)

		got, err := s.service.Accept(s.ctx, req)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, got.Status)
		s.Require().NotNil(got.Intake.OriginalDocPath)
		s.Equal("http://blob/original.pdf", *got.Intake.OriginalDocPath)
	})

	s.Run("without a document nothing is uploaded", func() {
		c := s.submitted()
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		req := acceptRequest(c.ID)

		got, err := s.service.Accept(s.ctx, req)
		s.Require().NoError(err)
		s.Nil(got.Intake.OriginalDocPath)
		s.Equal([]string{"อาหาร"}, got.Intake.RelatedActs)
	})

	s.Run("only from pending", func() {
		c := s.accepted()
		req := acceptRequest(c.ID)
		req.Intake.ComplaintNumber = "C-OTHER"
		_, err := s.service.Accept(s.ctx, req)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("unknown complaint", func() {
		_, err := s.service.Accept(s.ctx, acceptRequest(id.ComplaintID(404)))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestReject() {
	s.Run("reason is required", func() {
		c := s.submitted()
		_, err := s.service.Reject(s.ctx, &models.RejectRequest{ID: c.ID, Reason: " "})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("any status under the default policy", func() {
		c := s.accepted()
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		got, err := s.service.Reject(s.ctx, &models.RejectRequest{ID: c.ID, Reason: "ไม่อยู่ในอำนาจ"})
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, got.Status)
		s.Equal("ไม่อยู่ในอำนาจ", *got.RejectionReason)
	})

	s.Run("reason is stored verbatim", func() {
		c := s.submitted()
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		reason := "  สินค้าไม่อยู่ในขอบเขต\nโปรดติดต่อ สคบ.  "
		got, err := s.service.Reject(s.ctx, &models.RejectRequest{ID: c.ID, Reason: reason})
		s.Require().NoError(err)
		s.Equal(reason, *got.RejectionReason)
	})

	s.Run("pending only policy", func() {
		strict := New(s.store, ledger.New(s.store, s.store), s.uploader, WithRejectPolicy(models.RejectPendingOnly))
		c := s.accepted()
		_, err := strict.Reject(s.ctx, &models.RejectRequest{ID: c.ID, Reason: "ซ้ำ"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestAssign() {
	s.Run("requires admin", func() {
		c := s.submitted()
		ctx := requestcontext.WithStaff(s.ctx, id.StaffID(2), id.RoleOfficial)
		_, err := s.service.Assign(ctx, &models.AssignRequest{ID: c.ID, OfficerID: "7"})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("last writer wins", func() {
		c := s.submitted()
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		_, err := s.service.Assign(s.ctx, &models.AssignRequest{ID: c.ID, OfficerID: "7"})
		s.Require().NoError(err)
		got, err := s.service.Assign(s.ctx, &models.AssignRequest{ID: c.ID, OfficerID: "8"})
		s.Require().NoError(err)
		s.Equal(id.StaffID(8), *got.Intake.ResponsiblePersonID)
	})

	s.Run("open only policy refuses closed cases", func() {
		c := s.accepted()
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Reject(s.ctx, &models.RejectRequest{ID: c.ID, Reason: "ซ้ำ"})
		s.Require().NoError(err)

		strict := New(s.store, ledger.New(s.store, s.store), s.uploader, WithAssignPolicy(models.AssignOpenOnly))
		_, err = strict.Assign(s.ctx, &models.AssignRequest{ID: c.ID, OfficerID: "7"})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})
}

func (s *ServiceSuite) TestRecordInvestigation() {
	s.Run("requires in progress", func() {
		c := s.submitted()
		_, err := s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
			ID: c.ID, InvestigationDate: "2024-02-01", LegalAction: "NONE",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	s.Run("appends new action evidence to the stored list", func() {
		c := s.accepted()
		s.uploader.EXPECT().Upload(gomock.Any(), prefixActionEvidence, gomock.Any()).Return("http://blob/e1.jpg", nil)
		_, err := s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
			ID: c.ID, InvestigationDate: "2024-02-01", LegalAction: "NONE",
			EvidenceFiles: []blob.File{file("e1.jpg")},
		})
		s.Require().NoError(err)

		s.uploader.EXPECT().Upload(gomock.Any(), prefixActionEvidence, gomock.Any()).Return("http://blob/e2.jpg", nil)
		got, err := s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
			ID: c.ID, InvestigationDate: "2024-02-02", LegalAction: "NONE",
			EvidenceFiles: []blob.File{file("e2.jpg")},
		})
		s.Require().NoError(err)
		s.Equal([]string{"http://blob/e1.jpg", "http://blob/e2.jpg"}, got.Investigation.ActionEvidenceFiles)
		s.Equal(models.StatusInProgress, got.Status)
	})

	s.Run("concurrent saves keep every new upload", func() {
		c := s.accepted()
		var loaded sync.WaitGroup
		loaded.Add(2)
		s.uploader.EXPECT().Upload(gomock.Any(), prefixActionEvidence, gomock.Any()).Times(2).
			DoAndReturn(func(_ context.Context, _ string, f *blob.File) (string, error) {
				// both saves have read the complaint before either writes
				loaded.Done()
				loaded.Wait()
				return "http://blob/" + f.Name, nil
			})

		var done sync.WaitGroup
		for _, name := range []string{"a.jpg", "b.jpg"} {
			done.Add(1)
			go func(name string) {
				defer done.Done()
				_, err := s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
					ID: c.ID, InvestigationDate: "2024-02-01", LegalAction: "NONE",
					EvidenceFiles: []blob.File{file(name)},
				})
				s.NoError(err)
			}(name)
		}
		done.Wait()

		got, err := s.service.Get(s.ctx, c.ID)
		s.Require().NoError(err)
		s.ElementsMatch([]string{"http://blob/a.jpg", "http://blob/b.jpg"}, got.Investigation.ActionEvidenceFiles)
	})

	s.Run("ledger failure does not fail the save", func() {
		ledgerMock := mocks.NewMockFineLedger(s.ctrl)
		svc := New(s.store, ledgerMock, s.uploader)
		c := s.accepted()
		ledgerMock.EXPECT().
			Sync(gomock.Any(), c.ID, models.LegalActionFine, gomock.Len(1)).
			Return(0, errors.New("deadlock"))

		got, err := svc.RecordInvestigation(s.ctx, &models.InvestigationRequest{
			ID: c.ID, InvestigationDate: "2024-02-01", LegalAction: "FINE", StatusUpdate: "RESOLVED",
			Fines: []models.FineEntry{{Act: "อาหาร", Section: "25(1)", Amount: "5000"}},
		})
		s.Require().NoError(err)
		s.Equal(models.StatusResolved, got.Status)
		s.Empty(got.Fines)
	})
}

func (s *ServiceSuite) TestEndToEnd() {
	c := s.submitted()
	s.Equal(models.StatusPending, c.Status)

	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	_, err := s.service.Accept(s.ctx, acceptRequest(c.ID))
	s.Require().NoError(err)
	_, err = s.service.Assign(s.ctx, &models.AssignRequest{ID: c.ID, OfficerID: "7"})
	s.Require().NoError(err)

	s.Equal(id.ComplaintID(1), c.ID)
	got, err := s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
		ID:                c.ID,
		InvestigationDate: "2024-02-01",
		IsGuilty:          "true",
		LegalAction:       "FINE",
		Fines:             []models.FineEntry{{Act: "อาหาร", Section: "25(1)", Amount: "5000"}},
		StatusUpdate:      "RESOLVED",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusResolved, got.Status)
	s.Equal(id.StaffID(7), *got.Intake.ResponsiblePersonID)
	s.Equal("บางพลี", *got.Intake.District)
	s.Equal("C-2024-001", *got.Intake.ComplaintNumber)
	s.Require().Len(got.Fines, 1)
	s.True(got.Fines[0].Amount.Equal(decimal.NewFromInt(5000)))
	s.Equal("อาหาร", got.Fines[0].ActName)

	_, err = s.service.RecordInvestigation(s.ctx, &models.InvestigationRequest{
		ID: c.ID, InvestigationDate: "2024-02-01", LegalAction: "NONE",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func (s *ServiceSuite) TestGetUnknown() {
	_, err := s.service.Get(s.ctx, id.ComplaintID(12345))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
