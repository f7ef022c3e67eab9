package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
)

// DefaultRange is used when an activity query names no range.
const DefaultRange = "24h"

// ActiveWindow is how recent a location update must be for Stats to count
// the user as active.
const ActiveWindow = 24 * time.Hour

var activityRanges = map[string]time.Duration{
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
}

// SubscriptionCounter reports live proximity-feed subscriptions.
type SubscriptionCounter interface {
	Count() int
}

// AnalyticsService answers aggregate queries over users, locations, signals
// and receipts. Every figure comes from a count or group query; no rows are
// loaded.
type AnalyticsService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	subs        SubscriptionCounter
	clock       clock.Clock
	logger      logging.Logger
}

// NewAnalyticsService constructs the service. subs may be nil.
func NewAnalyticsService(db *sql.DB, m repomanager.RepositoryManager, subs SubscriptionCounter, opts ...Option) *AnalyticsService {
	o := newOptions(opts)
	return &AnalyticsService{
		db:          db,
		repomanager: m,
		subs:        subs,
		clock:       o.clock,
		logger:      o.logger.With("module", "analytics"),
	}
}

// Stats gathers the system totals concurrently.
func (s *AnalyticsService) Stats(ctx context.Context) (*models.SystemStats, error) {
	now := s.clock.Now()
	st := &models.SystemStats{Timestamp: now}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repomanager.Users(s.db).Count(ctx)
		st.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.repomanager.Locations(s.db).CountUpdatedSince(ctx, now.Add(-ActiveWindow))
		st.ActiveUsers = n
		return err
	})
	g.Go(func() error {
		total, active, err := s.repomanager.Signals(s.db).Totals(ctx)
		st.TotalSignals, st.ActiveSignals = total, active
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error(ctx, "stats query failed", "error", err)
		return nil, err
	}

	if s.subs != nil {
		st.Subscriptions = s.subs.Count()
	}
	return st, nil
}

// SignalActivity groups the signals sent inside rng by hour of day and by
// max distance range.
func (s *AnalyticsService) SignalActivity(ctx context.Context, rng string) (*models.SignalActivity, error) {
	rng, since, err := s.window(rng)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Signals(s.db)
	byHour, err := repo.CountByHourSince(ctx, since)
	if err != nil {
		return nil, err
	}
	byReach, err := repo.CountByDistanceSince(ctx, since)
	if err != nil {
		return nil, err
	}

	a := &models.SignalActivity{
		Range:      rng,
		ByHour:     byHour,
		ByDistance: make(map[string]int64),
		Timestamp:  s.clock.Now(),
	}
	for _, n := range byHour {
		a.Total += n
	}
	for reach, n := range byReach {
		a.ByDistance[distanceRange(reach)] += n
	}
	return a, nil
}

// UserActivity counts the users active inside rng and the share of them
// that sent or received signals.
func (s *AnalyticsService) UserActivity(ctx context.Context, rng string) (*models.UserActivity, error) {
	rng, since, err := s.window(rng)
	if err != nil {
		return nil, err
	}

	a := &models.UserActivity{Range: rng, Timestamp: s.clock.Now()}
	var engaged int64

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a.ActiveUsers, err = s.repomanager.Locations(s.db).CountUpdatedSince(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		a.Senders, err = s.repomanager.Signals(s.db).CountSendersSince(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		a.Receivers, err = s.repomanager.Receipts(s.db).CountReceiversSince(ctx, since)
		return err
	})
	g.Go(func() (err error) {
		engaged, err = s.repomanager.Receipts(s.db).CountEngagedSince(ctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error(ctx, "user activity query failed", "error", err)
		return nil, err
	}

	if a.ActiveUsers > 0 {
		a.EngagementRate = float64(engaged) / float64(a.ActiveUsers) * 100
	}
	return a, nil
}

func (s *AnalyticsService) window(rng string) (string, time.Time, error) {
	if rng == "" {
		rng = DefaultRange
	}
	d, ok := activityRanges[rng]
	if !ok {
		return "", time.Time{}, fmt.Errorf("%w: %q", common.ErrInvalidRange, rng)
	}
	return rng, s.clock.Now().Add(-d), nil
}

// distanceRange labels a max distance rounded up to whole units.
func distanceRange(reach int) string {
	switch {
	case reach <= 2:
		return "0-2"
	case reach <= 5:
		return "3-5"
	case reach <= 8:
		return "6-8"
	case reach <= 10:
		return "9-10"
	default:
		return "10+"
	}
}
