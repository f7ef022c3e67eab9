package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/cryptox"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/metrics"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
)

// LocationService owns the single live location of every user.
//
// Precise coordinates are stored encrypted. Queries prefilter on the coarse
// grid columns with a bounding box and then decrypt each candidate to
// compute the exact distance.
type LocationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *cryptox.LocationCodec
	users       UserLookup
	publisher   Publisher
	grid        geo.Grid
	ttl         time.Duration

	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger
}

// NewLocationService constructs a LocationService. publisher may be nil.
func NewLocationService(db *sql.DB, m repomanager.RepositoryManager, codec *cryptox.LocationCodec,
	users UserLookup, publisher Publisher, cfg *config.Config, opts ...Option) *LocationService {
	o := newOptions(opts)
	return &LocationService{
		db:          db,
		repomanager: m,
		codec:       codec,
		users:       users,
		publisher:   publisher,
		grid:        geo.NewGrid(cfg.GridPrecision),
		ttl:         cfg.LocationTTL,
		clock:       o.clock,
		ids:         o.ids,
		logger:      o.logger.With("module", "locations"),
	}
}

// Update validates and stores the user's location, replacing any previous
// record, then hands the update to the publisher.
func (s *LocationService) Update(ctx context.Context, userID string, lat, lng float64) error {
	p, err := geo.NewPoint(lat, lng)
	if err != nil {
		return err
	}

	encLat, err := s.codec.Encrypt(p.Latitude)
	if err != nil {
		return fmt.Errorf("encrypt latitude: %w", err)
	}
	encLng, err := s.codec.Encrypt(p.Longitude)
	if err != nil {
		return fmt.Errorf("encrypt longitude: %w", err)
	}

	now := s.clock.Now()
	snapped := s.grid.Snap(p)
	rec := &models.LocationRecord{
		ID:                 s.ids.New(),
		UserID:             userID,
		EncryptedLatitude:  encLat,
		EncryptedLongitude: encLng,
		GridLatitude:       snapped.Latitude,
		GridLongitude:      snapped.Longitude,
		CreatedAt:          now,
		ExpiresAt:          now.Add(s.ttl),
	}

	if err := s.repomanager.Locations(s.db).Upsert(ctx, rec); err != nil {
		return err
	}

	metrics.LocationUpdates.Inc()

	if s.publisher != nil {
		s.publisher.Broadcast(models.LocationUpdate{UserID: userID, Location: p, Timestamp: now})
	}
	return nil
}

// NearbyUsers returns live users other than excludeUserID whose distance
// from origin (in unit) lies in band, nearest first. Records that fail to
// decrypt are logged and skipped.
func (s *LocationService) NearbyUsers(ctx context.Context, origin geo.Point, band geo.Band, unit geo.Unit, excludeUserID string) ([]models.NearbyUser, error) {
	now := s.clock.Now()
	box := geo.BoundingBox(origin, band.Max, unit, s.grid.Margin())

	records, err := s.repomanager.Locations(s.db).ListActiveWithin(ctx, box, now, excludeUserID)
	if err != nil {
		return nil, err
	}

	result := make([]models.NearbyUser, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.UserID == excludeUserID || rec.Expired(now) {
			continue
		}

		p, err := s.decrypt(rec)
		if err != nil {
			metrics.DecryptFailures.Inc()
			s.logger.Warn(ctx, "skipping location record", "user_id", rec.UserID, "error", err)
			continue
		}

		d := geo.Distance(origin, p, unit)
		if !band.Contains(d) {
			continue
		}
		result = append(result, models.NearbyUser{
			UserID:    rec.UserID,
			Distance:  d,
			Direction: string(geo.Bearing(origin, p)),
			LastSeen:  rec.CreatedAt,
		})
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Distance == result[j].Distance {
			return result[i].UserID < result[j].UserID
		}
		return result[i].Distance < result[j].Distance
	})
	return result, nil
}

// NearbyUsersOf runs NearbyUsers around the caller's own live location,
// within maxDistance in the caller's preferred unit.
func (s *LocationService) NearbyUsersOf(ctx context.Context, userID string, maxDistance float64) ([]models.NearbyUser, error) {
	if err := validateDistance(maxDistance); err != nil {
		return nil, err
	}

	unit, err := s.users.DistanceUnit(ctx, userID)
	if err != nil {
		return nil, err
	}

	origin, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.NearbyUsers(ctx, origin, geo.Within(maxDistance), unit, userID)
}

// Current returns the user's live location or common.ErrorNotFound.
func (s *LocationService) Current(ctx context.Context, userID string) (geo.Point, error) {
	rec, err := s.repomanager.Locations(s.db).GetActive(ctx, userID, s.clock.Now())
	if err != nil {
		return geo.Point{}, err
	}
	return s.decrypt(rec)
}

// PurgeExpired deletes records that are already logically expired.
func (s *LocationService) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repomanager.Locations(s.db).Purge(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	metrics.LocationsPurged.Add(float64(n))
	return n, nil
}

// RunPurger calls PurgeExpired every interval until ctx is done.
func (s *LocationService) RunPurger(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(interval):
		}

		n, err := s.PurgeExpired(ctx)
		if err != nil {
			s.logger.Error(ctx, "location purge failed", "error", err)
			continue
		}
		if n > 0 {
			s.logger.Info(ctx, "expired locations purged", "count", n)
		}
	}
}

func (s *LocationService) decrypt(rec *models.LocationRecord) (geo.Point, error) {
	lat, err := s.codec.Decrypt(rec.EncryptedLatitude)
	if err != nil {
		return geo.Point{}, err
	}
	lng, err := s.codec.Decrypt(rec.EncryptedLongitude)
	if err != nil {
		return geo.Point{}, err
	}
	p, err := geo.NewPoint(lat, lng)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", common.ErrDecryptionFailed, err)
	}
	return p, nil
}

func validateDistance(d float64) error {
	if !(d > 0 && d <= common.MaxSignalDistance) {
		return fmt.Errorf("%w: %v must be within (0, %v]", common.ErrInvalidDistance, d, common.MaxSignalDistance)
	}
	return nil
}
