// Package services contains the server-side business logic: the location
// store, the user directory and the signal propagation engine.
package services

import (
	"context"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

// Publisher receives location updates for live streaming.
type Publisher interface {
	Broadcast(update models.LocationUpdate)
}

// Notifier delivers a push notification for a new receipt. Implementations
// may block up to the context deadline; errors are only logged.
type Notifier interface {
	Notify(ctx context.Context, n models.SignalNotification) error
}

// Archiver stores an expired signal together with its receipts.
type Archiver interface {
	Archive(ctx context.Context, s *models.Signal, receipts []models.SignalReceipt) error
}

// Locator answers proximity queries over live locations.
type Locator interface {
	NearbyUsers(ctx context.Context, origin geo.Point, band geo.Band, unit geo.Unit, excludeUserID string) ([]models.NearbyUser, error)
}

// UserLookup resolves per-user settings by ID. Unknown users yield
// common.ErrorNotFound.
type UserLookup interface {
	IsOffline(ctx context.Context, userID string) (bool, error)
	DistanceUnit(ctx context.Context, userID string) (geo.Unit, error)
}

// Option customizes a service.
type Option func(*options)

type options struct {
	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

func newOptions(opts []Option) options {
	o := options{clock: clock.Real{}, ids: clock.UUIDGenerator{}, logger: logging.Nop{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option { return func(o *options) { o.clock = c } }

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(g clock.IDGenerator) Option { return func(o *options) { o.ids = g } }

// WithLogger sets the logger; the default discards everything.
func WithLogger(l logging.Logger) Option { return func(o *options) { o.logger = l } }
