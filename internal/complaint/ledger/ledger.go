// Package ledger keeps a complaint's fine rows in step with its latest
// investigation save.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
	"complaintdesk/pkg/requestcontext"
)

// FineStore is the persistence the synchronizer drives.
type FineStore interface {
	// LockComplaint holds the complaint row until the unit of work ends, so
	// concurrent replaces of the same fine set run one after the other.
	LockComplaint(ctx context.Context, complaintID id.ComplaintID) error
	DeleteFines(ctx context.Context, complaintID id.ComplaintID) error
	InsertFine(ctx context.Context, complaintID id.ComplaintID, fine models.Fine, now time.Time) error
}

// TxRunner runs fn as one unit of work.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Synchronizer replaces the fine set of a complaint.
type Synchronizer struct {
	fines  FineStore
	tx     TxRunner
	logger *slog.Logger
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = logger
	}
}

// New creates a Synchronizer.
func New(fines FineStore, tx TxRunner, opts ...Option) *Synchronizer {
	s := &Synchronizer{fines: fines, tx: tx, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync makes the stored fines equal to the well-formed entries when kind is
// FINE, and empty otherwise. Lock, delete and insert share one transaction,
// so a failure leaves the previous fine set untouched and two concurrent
// syncs never merge their entries. It returns the number of rows written.
func (s *Synchronizer) Sync(ctx context.Context, complaintID id.ComplaintID, kind models.LegalAction, entries []models.FineEntry) (int, error) {
	var fines []models.Fine
	if kind == models.LegalActionFine {
		fines = models.WellFormedFines(entries)
		if dropped := len(entries) - len(fines); dropped > 0 {
			s.logger.InfoContext(ctx, "dropped malformed fine entries",
				"complaint_id", complaintID.String(),
				"dropped", dropped,
			)
		}
	}
	now := requestcontext.Now(ctx)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.fines.LockComplaint(ctx, complaintID); err != nil {
			return err
		}
		if err := s.fines.DeleteFines(ctx, complaintID); err != nil {
			return err
		}
		for _, f := range fines {
			if err := s.fines.InsertFine(ctx, complaintID, f, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sync fines for complaint %s: %w", complaintID, err)
	}
	return len(fines), nil
}
