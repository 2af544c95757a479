// Package performance computes officer turnaround and backlog figures.
//
// Durations are reported raw: an investigation dated before receipt yields a
// negative number of days. The SLA threshold is passed through for consumers
// to flag overdue cases and is not applied here.
package performance

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"complaintdesk/internal/complaint/models"
	"complaintdesk/internal/officer"
	"complaintdesk/internal/report/store"
	"complaintdesk/internal/report/window"
	id "complaintdesk/pkg/domain"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/requestcontext"
)

// TimeRange selects the group-wide lookback.
type TimeRange string

const (
	RangeAll      TimeRange = "ALL"
	Range12Months TimeRange = "12_MONTHS"
)

const (
	groupLookback = 365 * 24 * time.Hour
	hoursPerDay   = 24
)

// ParseTimeRange accepts ALL or 12_MONTHS; empty means ALL.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "", RangeAll:
		return RangeAll, nil
	case Range12Months:
		return Range12Months, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "timeRange must be ALL or 12_MONTHS")
}

// OfficerStats is one officer's row. AverageDays is nil when none of the
// officer's cases has a received date.
type OfficerStats struct {
	OfficerID    id.StaffID `json:"officer_id"`
	FullName     string     `json:"full_name"`
	AverageDays  *float64   `json:"average_days"`
	TotalCases   int        `json:"total_cases"`
	PendingCases int        `json:"pending_cases"`
}

// OfficerReport lists every active officer over the trailing calendar window.
type OfficerReport struct {
	From     string         `json:"from"`
	To       string         `json:"to"`
	SLADays  int            `json:"sla_days"`
	Officers []OfficerStats `json:"officers"`
}

// GroupStats is the figure across all cases regardless of officer.
type GroupStats struct {
	TimeRange    TimeRange `json:"time_range"`
	AverageDays  *float64  `json:"average_days"`
	TotalCases   int       `json:"total_cases"`
	PendingCases int       `json:"pending_cases"`
	SLADays      int       `json:"sla_days"`
}

// DurationDays is investigation date minus received date in whole days, or
// for cases not yet investigated, now minus received date. ok is false when
// the received date is unknown.
func DurationDays(f store.ComplaintFact, now time.Time, loc *time.Location) (days float64, ok bool) {
	if f.ReceivedDate == nil {
		return 0, false
	}
	if f.InvestigationDate != nil {
		return float64(calendarDays(*f.ReceivedDate, *f.InvestigationDate)), true
	}
	y, m, d := f.ReceivedDate.Date()
	received := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return now.Sub(received).Hours() / hoursPerDay, true
}

func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / hoursPerDay)
}

type tally struct {
	sum      float64
	measured int
	total    int
	pending  int
}

func (t *tally) add(f store.ComplaintFact, now time.Time, loc *time.Location) {
	t.total++
	if models.IsBacklog(f.Status, f.InvestigationDate) {
		t.pending++
	}
	if d, ok := DurationDays(f, now, loc); ok {
		t.sum += d
		t.measured++
	}
}

func (t *tally) average() *float64 {
	if t.measured == 0 {
		return nil
	}
	avg := t.sum / float64(t.measured)
	return &avg
}

// ByOfficer tallies facts per officer. Every officer in roster gets a row;
// cases assigned to anyone outside the roster are ignored. Rejected cases
// never count.
func ByOfficer(facts []store.ComplaintFact, roster []*officer.Officer, now time.Time, loc *time.Location) []OfficerStats {
	tallies := make(map[id.StaffID]*tally, len(roster))
	for _, o := range roster {
		tallies[o.ID] = &tally{}
	}
	for _, f := range facts {
		if f.Status == models.StatusRejected || f.ResponsiblePersonID == nil {
			continue
		}
		t, ok := tallies[*f.ResponsiblePersonID]
		if !ok {
			continue
		}
		t.add(f, now, loc)
	}

	out := make([]OfficerStats, 0, len(roster))
	for _, o := range roster {
		t := tallies[o.ID]
		out = append(out, OfficerStats{
			OfficerID:    o.ID,
			FullName:     o.FullName,
			AverageDays:  t.average(),
			TotalCases:   t.total,
			PendingCases: t.pending,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OfficerID < out[j].OfficerID })
	return out
}

// Group tallies every non-rejected fact.
func Group(facts []store.ComplaintFact, now time.Time, loc *time.Location) (avg *float64, total, pending int) {
	var t tally
	for _, f := range facts {
		if f.Status == models.StatusRejected {
			continue
		}
		t.add(f, now, loc)
	}
	return t.average(), t.total, t.pending
}

// Source supplies complaint rows.
type Source interface {
	ComplaintFacts(ctx context.Context, r store.Range) ([]store.ComplaintFact, error)
}

// Roster lists officers eligible for assignment.
type Roster interface {
	ListActive(ctx context.Context, role id.Role) ([]*officer.Officer, error)
}

// Calculator loads rows and computes performance figures as of the request time.
type Calculator struct {
	source  Source
	roster  Roster
	loc     *time.Location
	slaDays int
	logger  *slog.Logger
}

// Option configures a Calculator.
type Option func(*Calculator)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// WithSLADays sets the threshold echoed to consumers. Defaults to 50.
func WithSLADays(days int) Option {
	return func(c *Calculator) {
		if days > 0 {
			c.slaDays = days
		}
	}
}

func New(source Source, roster Roster, loc *time.Location, opts ...Option) *Calculator {
	c := &Calculator{
		source:  source,
		roster:  roster,
		loc:     loc,
		slaDays: 50,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Officers reports each active officer over the trailing 12 calendar months
// ending with the current month.
func (c *Calculator) Officers(ctx context.Context) (*OfficerReport, error) {
	now := requestcontext.Now(ctx)
	w := window.Trailing(window.MonthOf(now.In(c.loc)), c.loc)

	roster, err := c.roster.ListActive(ctx, id.RoleOfficial)
	if err != nil {
		return nil, c.internal(ctx, "failed to list officers", err)
	}
	facts, err := c.source.ComplaintFacts(ctx, store.Range{From: w.Start, To: w.End})
	if err != nil {
		return nil, c.internal(ctx, "failed to load complaint facts", err)
	}

	return &OfficerReport{
		From:     w.Months[0].Key(),
		To:       w.Months[len(w.Months)-1].Key(),
		SLADays:  c.slaDays,
		Officers: ByOfficer(facts, roster, now, c.loc),
	}, nil
}

// Group reports the figure across all officers. 12_MONTHS is a rolling 365
// days back from now, not aligned to calendar months.
func (c *Calculator) Group(ctx context.Context, tr TimeRange) (*GroupStats, error) {
	now := requestcontext.Now(ctx)
	var r store.Range
	if tr == Range12Months {
		r.From = now.Add(-groupLookback)
	}
	facts, err := c.source.ComplaintFacts(ctx, r)
	if err != nil {
		return nil, c.internal(ctx, "failed to load complaint facts", err)
	}

	avg, total, pending := Group(facts, now, c.loc)
	return &GroupStats{
		TimeRange:    tr,
		AverageDays:  avg,
		TotalCases:   total,
		PendingCases: pending,
		SLADays:      c.slaDays,
	}, nil
}

func (c *Calculator) internal(ctx context.Context, msg string, err error) error {
	c.logger.ErrorContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute performance")
}
