package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaintdesk/internal/complaint/models"
	jwttoken "complaintdesk/internal/jwt_token"
	"complaintdesk/internal/platform/config"
	"complaintdesk/internal/report/aggregate"
	"complaintdesk/internal/report/performance"
	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/testutil"
)

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{
			JWTSigningKey:  "test-signing-key",
			JWTIssuer:      "complaintdesk",
			RequestTimeout: 5 * time.Second,
		},
		Redis: config.RedisConfig{
			PublicSubmitLimit:  2,
			PublicSubmitWindow: time.Hour,
		},
		Lifecycle: config.LifecycleConfig{RejectPolicy: "any", AssignPolicy: "any"},
		Reporting: config.ReportingConfig{Timezone: "Asia/Bangkok", SLADays: 50},
	}
}

func bearer(t *testing.T, cfg config.Config, staff id.StaffID, role id.Role) string {
	t.Helper()
	token, err := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer).
		GenerateAccessToken(staff, role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestServerScenario(t *testing.T) {
	cfg := testConfig()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := build(context.Background(), cfg, logger)
	require.NoError(t, err)
	defer a.close()

	admin := bearer(t, cfg, 1, id.RoleAdmin)
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	today := time.Now().In(loc).Format("2006-01-02")

	do := func(req *http.Request, token string) *httptest.ResponseRecorder {
		if token != "" {
			req.Header.Set("Authorization", token)
		}
		return testutil.DoRequest(a.router, req)
	}

	var complaintID id.ComplaintID

	testutil.Given(t, "a public submission", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/public/complaints", map[string][]string{
			"complainant_name": {"สมชาย ใจดี"},
			"national_id":      {"1234567890123"},
			"phone":            {"0812345678"},
			"product_name":     {"น้ำปลา"},
		})
		rr := do(req, "")
		testutil.AssertStatus(t, rr, http.StatusCreated)
		env := testutil.UnmarshalEnvelope[models.Complaint](t, rr)
		require.Equal(t, models.StatusPending, env.Data.Status)
		complaintID = env.Data.ID

		testutil.When(t, "staff accept, assign and resolve it", func(t *testing.T) {
			accept := testutil.NewMultipartRequest(t, http.MethodPost, "/complaints/"+complaintID.String()+"/accept", map[string][]string{
				"complaint_number": {"C-2024-001"},
				"received_date":    {today},
				"channel":          {"ONLINE"},
				"complaint_type":   {"GENERAL"},
				"district":         {"บางพลี"},
				"related_acts":     {"อาหาร"},
			})
			testutil.AssertStatus(t, do(accept, admin), http.StatusOK)

			assign := testutil.NewJSONRequest(t, http.MethodPost, "/complaints/"+complaintID.String()+"/assign", map[string]string{"officer_id": "7"})
			testutil.AssertStatus(t, do(assign, admin), http.StatusOK)

			investigate := testutil.NewMultipartRequest(t, http.MethodPost, "/complaints/"+complaintID.String()+"/investigation", map[string][]string{
				"investigation_date": {today},
				"is_guilty":          {"true"},
				"legal_action":       {"FINE"},
				"fines":              {`[{"act":"อาหาร","section":"25(1)","amount":5000}]`},
				"status_update":      {"RESOLVED"},
			})
			rr := do(investigate, bearer(t, cfg, 7, id.RoleOfficial))
			testutil.AssertStatus(t, rr, http.StatusOK)
			env := testutil.UnmarshalEnvelope[models.ComplaintDetails](t, rr)
			assert.Equal(t, models.StatusResolved, env.Data.Status)
			assert.Len(t, env.Data.Fines, 1)

			testutil.Then(t, "reports include the resolved case", func(t *testing.T) {
				rr := do(testutil.NewRequest(t, http.MethodGet, "/reports/monthly/district"), admin)
				testutil.AssertStatus(t, rr, http.StatusOK)
				series := testutil.UnmarshalEnvelope[aggregate.Series](t, rr).Data
				last := series.Buckets[len(series.Buckets)-1]
				assert.Equal(t, 1, last.Counts["บางพลี"])

				rr = do(testutil.NewRequest(t, http.MethodGet, "/reports/performance?timeRange=12_MONTHS"), admin)
				testutil.AssertStatus(t, rr, http.StatusOK)
				group := testutil.UnmarshalEnvelope[performance.GroupStats](t, rr).Data
				assert.Equal(t, 1, group.TotalCases)
				assert.Zero(t, group.PendingCases)
			})
		})
	})

	testutil.Given(t, "no bearer token", func(t *testing.T) {
		testutil.Then(t, "staff routes are refused", func(t *testing.T) {
			rr := do(testutil.NewRequest(t, http.MethodGet, "/complaints"), "")
			testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		})
	})

	testutil.Given(t, "an official", func(t *testing.T) {
		testutil.Then(t, "assignment is forbidden", func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/complaints/"+complaintID.String()+"/assign", map[string]string{"officer_id": "9"})
			rr := do(req, bearer(t, cfg, 7, id.RoleOfficial))
			testutil.AssertStatus(t, rr, http.StatusForbidden)
		})
	})

	testutil.Given(t, "repeated public submissions from one address", func(t *testing.T) {
		submit := func() int {
			req := testutil.NewMultipartRequest(t, http.MethodPost, "/public/complaints", map[string][]string{
				"complainant_name": {"สมหญิง"},
				"national_id":      {"1234567890123"},
				"phone":            {"0812345678"},
				"product_name":     {"ขนม"},
			})
			return do(req, "").Code
		}
		testutil.Then(t, "the intake limit applies", func(t *testing.T) {
			assert.Equal(t, http.StatusCreated, submit())
			assert.Equal(t, http.StatusTooManyRequests, submit())
		})
	})

	testutil.Then(t, "health passes without backing services", func(t *testing.T) {
		testutil.AssertStatus(t, do(testutil.NewRequest(t, http.MethodGet, "/healthz"), ""), http.StatusOK)
	})

	testutil.Then(t, "metrics are exposed", func(t *testing.T) {
		rr := do(testutil.NewRequest(t, http.MethodGet, "/metrics"), "")
		testutil.AssertStatus(t, rr, http.StatusOK)
		assert.True(t, strings.Contains(rr.Body.String(), "complaintdesk_http_requests_total"))
	})
}
