// Package signals persists Signal entities.
package signals

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Signal) error
	Get(ctx context.Context, id string) (*models.Signal, error)
	// FindLatestActiveSince returns the newest active signal of senderID sent
	// at or after since, or common.ErrorNotFound.
	FindLatestActiveSince(ctx context.Context, senderID string, since time.Time) (*models.Signal, error)
	UpdateStatus(ctx context.Context, id string, status models.SignalStatus) error

	// Totals counts all signals and the active ones among them.
	Totals(ctx context.Context) (total, active int64, err error)
	// CountByHourSince groups signals sent after since by UTC hour of day.
	CountByHourSince(ctx context.Context, since time.Time) (map[int]int64, error)
	// CountByDistanceSince groups signals sent after since by max distance
	// rounded up to a whole unit.
	CountByDistanceSince(ctx context.Context, since time.Time) (map[int]int64, error)
	// CountSendersSince counts distinct senders of signals sent after since.
	CountSendersSince(ctx context.Context, since time.Time) (int64, error)
}
