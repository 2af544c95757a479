// Package notify delivers short lifecycle messages to staff channels.
// Delivery is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"log/slog"
	"time"

	"complaintdesk/pkg/requestcontext"
)

// Message is the payload published for each notification.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LogNotifier writes notifications to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, text string) error {
	n.logger.InfoContext(ctx, "notification",
		"text", text,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
