package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"complaintdesk/internal/report/store"
	"complaintdesk/internal/report/window"
	dErrors "complaintdesk/pkg/domain-errors"
	"complaintdesk/pkg/requestcontext"
)

// Source supplies report rows.
type Source interface {
	ComplaintFacts(ctx context.Context, r store.Range) ([]store.ComplaintFact, error)
	FineFacts(ctx context.Context, r store.Range, filter store.FineFilter) ([]store.FineFact, error)
}

// Aggregator reads rows for a window and buckets them.
type Aggregator struct {
	source Source
	loc    *time.Location
	logger *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func New(source Source, loc *time.Location, opts ...Option) *Aggregator {
	a := &Aggregator{source: source, loc: loc, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Window resolves endMonth (YYYY-MM, empty for the current month).
func (a *Aggregator) Window(ctx context.Context, endMonth string) (window.Window, error) {
	return window.Resolve(endMonth, requestcontext.Now(ctx), a.loc)
}

// Monthly returns the series for one count dimension.
func (a *Aggregator) Monthly(ctx context.Context, d Dimension, endMonth string) (*Series, error) {
	w, err := a.Window(ctx, endMonth)
	if err != nil {
		return nil, err
	}
	facts, err := a.ComplaintFacts(ctx, w)
	if err != nil {
		return nil, err
	}
	series := Count(d, w, facts)
	return &series, nil
}

// MonthlyFines returns the fine series for the window ending at endMonth.
func (a *Aggregator) MonthlyFines(ctx context.Context, endMonth string, filter store.FineFilter) (*FineSeries, error) {
	w, err := a.Window(ctx, endMonth)
	if err != nil {
		return nil, err
	}
	fines, err := a.FineFacts(ctx, w, filter)
	if err != nil {
		return nil, err
	}
	series := Fines(w, fines, filter)
	return &series, nil
}

// ComplaintFacts loads the complaint rows for w.
func (a *Aggregator) ComplaintFacts(ctx context.Context, w window.Window) ([]store.ComplaintFact, error) {
	facts, err := a.source.ComplaintFacts(ctx, store.Range{From: w.Start, To: w.End})
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to load complaint facts",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load report data")
	}
	return facts, nil
}

// FineFacts loads the fine rows for w.
func (a *Aggregator) FineFacts(ctx context.Context, w window.Window, filter store.FineFilter) ([]store.FineFact, error) {
	fines, err := a.source.FineFacts(ctx, store.Range{From: w.Start, To: w.End}, filter)
	if err != nil {
		a.logger.ErrorContext(ctx, "failed to load fine facts",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to load fines for %s", w.Months[len(w.Months)-1].Key()))
	}
	return fines, nil
}
