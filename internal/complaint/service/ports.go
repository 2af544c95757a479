package service

import (
	"context"

	"complaintdesk/internal/blob"
	"complaintdesk/internal/complaint/models"
	id "complaintdesk/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Uploader stores one attachment and returns its URL. An empty file yields "".
type Uploader interface {
	Upload(ctx context.Context, prefix string, f *blob.File) (string, error)
}

// Notifier delivers a short staff-facing message. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// FineLedger replaces the fine rows of a complaint.
type FineLedger interface {
	Sync(ctx context.Context, complaintID id.ComplaintID, kind models.LegalAction, entries []models.FineEntry) (int, error)
}
