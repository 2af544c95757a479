// Package service serves report queries and assembles the dashboard overview.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"complaintdesk/internal/report/aggregate"
	"complaintdesk/internal/report/performance"
	"complaintdesk/internal/report/store"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/requestcontext"
)

var tracer = otel.Tracer("complaintdesk/report")

// Overview is every dashboard series for one window.
type Overview struct {
	Months      []string                                 `json:"months"`
	Series      map[aggregate.Dimension]aggregate.Series `json:"series"`
	Fines       aggregate.FineSeries                     `json:"fines"`
	Officers    *performance.OfficerReport               `json:"officers"`
	Group       *performance.GroupStats                  `json:"group"`
	GeneratedAt time.Time                                `json:"generated_at"`
}

// Service answers report queries.
type Service struct {
	aggregator *aggregate.Aggregator
	calculator *performance.Calculator
	logger     *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(aggregator *aggregate.Aggregator, calculator *performance.Calculator, opts ...Option) *Service {
	s := &Service{aggregator: aggregator, calculator: calculator, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Monthly returns one count dimension.
func (s *Service) Monthly(ctx context.Context, dimension, endMonth string) (_ *aggregate.Series, err error) {
	ctx, span := tracer.Start(ctx, "report.monthly", trace.WithAttributes(
		attribute.String("dimension", dimension),
		attribute.String("end_month", endMonth),
	))
	defer func() { end(span, err) }()

	d, ok := aggregate.ParseDimension(dimension)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown dimension "+dimension)
	}
	return s.aggregator.Monthly(ctx, d, endMonth)
}

// Fines returns the fine series, optionally narrowed by act and section.
func (s *Service) Fines(ctx context.Context, endMonth string, filter store.FineFilter) (_ *aggregate.FineSeries, err error) {
	ctx, span := tracer.Start(ctx, "report.fines", trace.WithAttributes(
		attribute.String("end_month", endMonth),
		attribute.String("act", filter.Act),
	))
	defer func() { end(span, err) }()

	return s.aggregator.MonthlyFines(ctx, endMonth, filter)
}

// Officers returns per-officer performance.
func (s *Service) Officers(ctx context.Context) (_ *performance.OfficerReport, err error) {
	ctx, span := tracer.Start(ctx, "report.officers")
	defer func() { end(span, err) }()

	return s.calculator.Officers(ctx)
}

// Group returns the group-wide performance figure.
func (s *Service) Group(ctx context.Context, timeRange string) (_ *performance.GroupStats, err error) {
	ctx, span := tracer.Start(ctx, "report.group", trace.WithAttributes(
		attribute.String("time_range", timeRange),
	))
	defer func() { end(span, err) }()

	tr, err := performance.ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}
	return s.calculator.Group(ctx, tr)
}

// Overview loads complaint rows, fine rows and performance figures
// concurrently, then builds every series from the shared rows.
func (s *Service) Overview(ctx context.Context, endMonth, timeRange string) (_ *Overview, err error) {
	ctx, span := tracer.Start(ctx, "report.overview")
	defer func() { end(span, err) }()

	w, err := s.aggregator.Window(ctx, endMonth)
	if err != nil {
		return nil, err
	}
	tr, err := performance.ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}

	var (
		facts    []store.ComplaintFact
		fines    []store.FineFact
		officers *performance.OfficerReport
		group    *performance.GroupStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facts, err = s.aggregator.ComplaintFacts(gctx, w)
		return err
	})
	g.Go(func() error {
		var err error
		fines, err = s.aggregator.FineFacts(gctx, w, store.FineFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		officers, err = s.calculator.Officers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		group, err = s.calculator.Group(gctx, tr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	series := make(map[aggregate.Dimension]aggregate.Series, len(aggregate.CountDimensions))
	for _, d := range aggregate.CountDimensions {
		series[d] = aggregate.Count(d, w, facts)
	}

	s.logger.DebugContext(ctx, "report overview built",
		"end_month", w.Months[len(w.Months)-1].Key(),
		"complaints", len(facts),
		"fines", len(fines),
		"request_id", requestcontext.RequestID(ctx),
	)
	return &Overview{
		Months:      w.Keys(),
		Series:      series,
		Fines:       aggregate.Fines(w, fines, store.FineFilter{}),
		Officers:    officers,
		Group:       group,
		GeneratedAt: requestcontext.Now(ctx),
	}, nil
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
