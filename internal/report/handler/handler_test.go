package handler

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	complaintstore "complaintdesk/internal/complaint/store"
	"complaintdesk/internal/officer"
	"complaintdesk/internal/report/aggregate"
	"complaintdesk/internal/report/export"
	"complaintdesk/internal/report/performance"
	"complaintdesk/internal/report/service"
	"complaintdesk/internal/report/store"
	"complaintdesk/internal/report/window"
	"complaintdesk/pkg/testutil"
)

type ReportHandlerSuite struct {
	suite.Suite
	router http.Handler
}

func TestReportHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReportHandlerSuite))
}

func (s *ReportHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loc, err := window.LoadLocation("Asia/Bangkok")
	s.Require().NoError(err)

	source := store.NewMemory(complaintstore.NewInMemory(), loc)
	svc := service.New(
		aggregate.New(source, loc, aggregate.WithLogger(logger)),
		performance.New(source, officer.NewInMemory(), loc, performance.WithLogger(logger)),
		service.WithLogger(logger),
	)
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
}

func (s *ReportHandlerSuite) get(path string) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path))
}

func (s *ReportHandlerSuite) TestMonthly() {
	rr := s.get("/reports/monthly/status?endMonth=2024-03")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	env := testutil.UnmarshalEnvelope[aggregate.Series](s.T(), rr)
	s.Require().Len(env.Data.Buckets, window.Size)
	s.Equal("2023-04", env.Data.Buckets[0].Month)
	s.Equal("2024-03", env.Data.Buckets[window.Size-1].Month)
	s.Equal(0, env.Data.Buckets[0].Counts[aggregate.KeyPending])
}

func (s *ReportHandlerSuite) TestBadParameters() {
	testutil.AssertStatusAndError(s.T(), s.get("/reports/monthly/weather"), http.StatusBadRequest, "bad_request")
	testutil.AssertStatusAndError(s.T(), s.get("/reports/monthly/acts?endMonth=24-03"), http.StatusBadRequest, "bad_request")
	testutil.AssertStatusAndError(s.T(), s.get("/reports/performance?timeRange=WEEK"), http.StatusBadRequest, "bad_request")
}

func (s *ReportHandlerSuite) TestFinesFilterEchoed() {
	rr := s.get("/reports/fines?endMonth=2024-03&act=%E0%B8%AD%E0%B8%B2%E0%B8%AB%E0%B8%B2%E0%B8%A3&section=25")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)

	env := testutil.UnmarshalEnvelope[aggregate.FineSeries](s.T(), rr)
	s.Equal("อาหาร", env.Data.Act)
	s.Equal("25", env.Data.Section)
	s.Len(env.Data.Buckets, window.Size)
}

func (s *ReportHandlerSuite) TestPerformance() {
	rr := s.get("/reports/performance?timeRange=12_MONTHS")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	env := testutil.UnmarshalEnvelope[performance.GroupStats](s.T(), rr)
	s.Equal(performance.Range12Months, env.Data.TimeRange)
	s.Nil(env.Data.AverageDays)
	s.Equal(50, env.Data.SLADays)

	rr = s.get("/reports/officers")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *ReportHandlerSuite) TestOverviewExport() {
	rr := s.get("/reports/overview.xlsx?endMonth=2024-03")
	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	s.Equal(export.ContentType, rr.Header().Get("Content-Type"))
	s.Contains(rr.Header().Get("Content-Disposition"), "complaints-2024-03.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	s.Require().NoError(err)
	defer f.Close()
	s.Contains(f.GetSheetList(), "Officers")
}
