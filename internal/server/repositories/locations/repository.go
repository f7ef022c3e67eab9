// Package locations persists the single live location record of each user.
package locations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

type Repository interface {
	// Upsert stores rec as the only record of rec.UserID, replacing any
	// earlier one in a single statement.
	Upsert(ctx context.Context, rec *models.LocationRecord) error
	// ListActiveWithin returns records whose grid coordinates fall in box and
	// that have not expired at now, excluding excludeUserID.
	ListActiveWithin(ctx context.Context, box geo.Box, now time.Time, excludeUserID string) ([]models.LocationRecord, error)
	GetActive(ctx context.Context, userID string, now time.Time) (*models.LocationRecord, error)
	// CountUpdatedSince counts users whose record was written after since.
	CountUpdatedSince(ctx context.Context, since time.Time) (int64, error)
	// Purge deletes records expired at now and returns how many were removed.
	Purge(ctx context.Context, now time.Time) (int64, error)
}
