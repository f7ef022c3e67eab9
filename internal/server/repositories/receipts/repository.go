// Package receipts persists SignalReceipt entities. At most one receipt
// exists per (signal, receiver) pair.
package receipts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type Repository interface {
	// CreateIfAbsent inserts r unless a receipt for the same signal and
	// receiver exists. It reports whether a row was inserted.
	CreateIfAbsent(ctx context.Context, r *models.SignalReceipt) (bool, error)
	Find(ctx context.Context, signalID, receiverID string) (*models.SignalReceipt, error)
	MarkResponded(ctx context.Context, signalID, receiverID string, at time.Time) error
	// ListReceived returns receipts of receiverID received at or after since,
	// newest first, joined with their signals.
	ListReceived(ctx context.Context, receiverID string, since time.Time) ([]models.ReceivedSignal, error)
	ListBySignal(ctx context.Context, signalID string) ([]models.SignalReceipt, error)

	// CountReceiversSince counts distinct receivers of receipts created
	// after since.
	CountReceiversSince(ctx context.Context, since time.Time) (int64, error)
	// CountEngagedSince counts distinct users who sent a signal or received
	// one after since.
	CountEngagedSince(ctx context.Context, since time.Time) (int64, error)
}
