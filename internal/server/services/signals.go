package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/dbx"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/metrics"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
)

// ReceivedWindow bounds ReceivedSignals.
const ReceivedWindow = 24 * time.Hour

// receiptWorkers caps concurrent receipt writes within one ring.
const receiptWorkers = 16

var errCancelled = errors.New("signal cancelled")

// SignalService runs the lifecycle of signals: cooldown check, persistence
// and a timed propagation run that expands one ring per RingInterval.
//
// Each accepted signal gets exactly one run. Ring k covers distances
// [k-1, k) and fires at sentAt + k*RingInterval; the last ring is closed at
// maxDistance. A run marks its signal expired at expiresAt, or at once when
// cancelled. Shutdown stops runs and leaves their signals active.
type SignalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	locator     Locator
	users       UserLookup
	notifier    Notifier
	archiver    Archiver

	cooldown     time.Duration
	lifetime     time.Duration
	ringInterval time.Duration
	pushTimeout  time.Duration

	clock  clock.Clock
	ids    clock.IDGenerator
	logger logging.Logger

	senders *keyedMutex

	root context.Context
	stop context.CancelCauseFunc
	wg   sync.WaitGroup

	mu     sync.Mutex
	runs   map[string]*run
	closed bool
}

type run struct {
	cancel context.CancelCauseFunc
	done   chan struct{}
}

// NewSignalService constructs the engine. archiver may be nil.
func NewSignalService(db *sql.DB, m repomanager.RepositoryManager, locator Locator, users UserLookup,
	notifier Notifier, archiver Archiver, cfg *config.Config, opts ...Option) *SignalService {
	o := newOptions(opts)
	root, stop := context.WithCancelCause(context.Background())
	return &SignalService{
		db:           db,
		repomanager:  m,
		locator:      locator,
		users:        users,
		notifier:     notifier,
		archiver:     archiver,
		cooldown:     cfg.SignalCooldown,
		lifetime:     cfg.SignalLifetime,
		ringInterval: cfg.RingInterval,
		pushTimeout:  cfg.PushTimeout,
		clock:        o.clock,
		ids:          o.ids,
		logger:       o.logger.With("module", "signals"),
		senders:      newKeyedMutex(),
		root:         root,
		stop:         stop,
		runs:         make(map[string]*run),
	}
}

// Send validates the request, enforces the cooldown and starts propagation.
// It returns as soon as the signal is persisted. After Shutdown it fails
// with common.ErrShuttingDown and stores nothing.
func (s *SignalService) Send(ctx context.Context, senderID string, origin geo.Point, maxDistance float64) (string, error) {
	if err := s.validate(origin, maxDistance); err != nil {
		metrics.SignalsRejected.WithLabelValues("invalid").Inc()
		return "", err
	}
	if s.isClosed() {
		return "", common.ErrShuttingDown
	}

	offline, err := s.users.IsOffline(ctx, senderID)
	if err != nil {
		return "", err
	}
	if offline {
		metrics.SignalsRejected.WithLabelValues("offline").Inc()
		return "", common.ErrUserOffline
	}

	unit, err := s.users.DistanceUnit(ctx, senderID)
	if err != nil {
		return "", err
	}

	unlock := s.senders.Lock(senderID)
	defer unlock()

	now := s.clock.Now()
	repo := s.repomanager.Signals(s.db)

	last, err := repo.FindLatestActiveSince(ctx, senderID, now.Add(-s.cooldown))
	switch {
	case err == nil:
		metrics.SignalsRejected.WithLabelValues("cooldown").Inc()
		return "", &common.CooldownError{Remaining: last.SentAt.Add(s.cooldown).Sub(now)}
	case !errors.Is(err, common.ErrorNotFound):
		return "", err
	}

	sig := s.newSignal(senderID, origin, maxDistance, unit, now)
	if err := repo.Create(ctx, sig); err != nil {
		return "", err
	}

	if err := s.start(sig); err != nil {
		s.discard(ctx, sig)
		return "", err
	}
	metrics.SignalsAccepted.WithLabelValues(metrics.KindSend).Inc()
	s.logger.Info(ctx, "signal accepted", "signal_id", sig.ID, "sender_id", senderID, "max_distance", maxDistance)
	return sig.ID, nil
}

// Respond answers a received signal with a new one, bypassing the cooldown.
// The responder must hold a receipt for originalSignalID.
func (s *SignalService) Respond(ctx context.Context, originalSignalID, responderID string, origin geo.Point, maxDistance float64) (string, error) {
	if err := s.validate(origin, maxDistance); err != nil {
		metrics.SignalsRejected.WithLabelValues("invalid").Inc()
		return "", err
	}
	if s.isClosed() {
		return "", common.ErrShuttingDown
	}

	if _, err := s.repomanager.Receipts(s.db).Find(ctx, originalSignalID, responderID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			metrics.SignalsRejected.WithLabelValues("not_authorized").Inc()
			return "", common.ErrNotAuthorized
		}
		return "", err
	}

	unit, err := s.users.DistanceUnit(ctx, responderID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now()
	sig := s.newSignal(responderID, origin, maxDistance, unit, now)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Signals(tx).Create(ctx, sig); err != nil {
			return err
		}
		return s.repomanager.Receipts(tx).MarkResponded(ctx, originalSignalID, responderID, now)
	})
	if err != nil {
		return "", err
	}

	if err := s.start(sig); err != nil {
		s.discard(ctx, sig)
		return "", err
	}
	metrics.SignalsAccepted.WithLabelValues(metrics.KindRespond).Inc()
	s.logger.Info(ctx, "response signal accepted", "signal_id", sig.ID, "original_signal_id", originalSignalID, "sender_id", responderID)
	return sig.ID, nil
}

// ReceivedSignals lists what receiverID received within ReceivedWindow.
func (s *SignalService) ReceivedSignals(ctx context.Context, receiverID string) ([]models.ReceivedSignal, error) {
	return s.repomanager.Receipts(s.db).ListReceived(ctx, receiverID, s.clock.Now().Add(-ReceivedWindow))
}

func (s *SignalService) GetSignal(ctx context.Context, signalID string) (*models.Signal, error) {
	return s.repomanager.Signals(s.db).Get(ctx, signalID)
}

// Cancel stops a signal's propagation and expires it. A signal without a
// run in this process is expired directly if it is still active.
func (s *SignalService) Cancel(ctx context.Context, signalID string) error {
	s.mu.Lock()
	r, ok := s.runs[signalID]
	s.mu.Unlock()

	if ok {
		r.cancel(errCancelled)
		select {
		case <-r.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	sig, err := s.repomanager.Signals(s.db).Get(ctx, signalID)
	if err != nil {
		return err
	}
	if sig.Status == models.SignalExpired {
		return nil
	}
	return s.repomanager.Signals(s.db).UpdateStatus(ctx, signalID, models.SignalExpired)
}

// Wait blocks until the run of signalID finishes. It returns at once when
// no run is in flight.
func (s *SignalService) Wait(ctx context.Context, signalID string) error {
	s.mu.Lock()
	r, ok := s.runs[signalID]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveRuns reports the number of runs in flight.
func (s *SignalService) ActiveRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Shutdown stops every run and waits for them and their pending pushes.
// No new run starts once it has been called.
func (s *SignalService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop(common.ErrShuttingDown)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *SignalService) validate(origin geo.Point, maxDistance float64) error {
	if err := origin.Validate(); err != nil {
		return err
	}
	return validateDistance(maxDistance)
}

func (s *SignalService) newSignal(senderID string, origin geo.Point, maxDistance float64, unit geo.Unit, now time.Time) *models.Signal {
	return &models.Signal{
		ID:          s.ids.New(),
		SenderID:    senderID,
		Latitude:    origin.Latitude,
		Longitude:   origin.Longitude,
		MaxDistance: maxDistance,
		Unit:        unit,
		Status:      models.SignalActive,
		SentAt:      now,
		ExpiresAt:   now.Add(s.lifetime),
	}
}

func (s *SignalService) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// start launches the run of sig. wg.Add happens under mu so that a
// concurrent Shutdown either sees the run or refuses it.
func (s *SignalService) start(sig *models.Signal) error {
	ctx, cancel := context.WithCancelCause(s.root)
	r := &run{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel(common.ErrShuttingDown)
		return common.ErrShuttingDown
	}
	s.runs[sig.ID] = r
	s.wg.Add(1)
	s.mu.Unlock()

	metrics.PropagationRuns.Inc()
	go func() {
		defer s.wg.Done()
		defer metrics.PropagationRuns.Dec()
		defer close(r.done)
		defer func() {
			s.mu.Lock()
			delete(s.runs, sig.ID)
			s.mu.Unlock()
			cancel(nil)
		}()

		s.propagate(ctx, sig)
	}()
	return nil
}

// discard expires a signal that was stored but refused a run, so it does
// not hold its sender's cooldown.
func (s *SignalService) discard(ctx context.Context, sig *models.Signal) {
	ctx = context.WithoutCancel(ctx)
	if err := s.repomanager.Signals(s.db).UpdateStatus(ctx, sig.ID, models.SignalExpired); err != nil {
		s.logger.Error(ctx, "refused signal not expired", "signal_id", sig.ID, "error", err)
		return
	}
	sig.Status = models.SignalExpired
}

func (s *SignalService) propagate(ctx context.Context, sig *models.Signal) {
	logger := s.logger.With("signal_id", sig.ID)
	rings := geo.RingCount(sig.MaxDistance)

	var wg sync.WaitGroup
	for k := 1; k <= rings; k++ {
		at := sig.SentAt.Add(time.Duration(k) * s.ringInterval)
		if at.After(sig.ExpiresAt) {
			logger.Warn(ctx, "ring past signal expiry skipped", "ring", k)
			continue
		}

		wg.Add(1)
		go func(k int, at time.Time) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-s.clock.After(at.Sub(s.clock.Now())):
			}
			s.processRing(ctx, logger, sig, k)
		}(k, at)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
	case <-s.clock.After(sig.ExpiresAt.Sub(s.clock.Now())):
	}

	if errors.Is(context.Cause(ctx), common.ErrShuttingDown) {
		logger.Info(ctx, "propagation interrupted by shutdown, signal left active")
		return
	}
	s.expire(context.WithoutCancel(ctx), logger, sig)
}

func (s *SignalService) processRing(ctx context.Context, logger logging.Logger, sig *models.Signal, k int) {
	band := geo.Ring(k, sig.MaxDistance)

	nearby, err := s.locator.NearbyUsers(ctx, sig.Origin(), band, sig.Unit, sig.SenderID)
	if err != nil {
		metrics.RingErrors.Inc()
		logger.Error(ctx, "ring query failed", "ring", k, "error", err)
		return
	}

	repo := s.repomanager.Receipts(s.db)

	var g errgroup.Group
	g.SetLimit(receiptWorkers)
	for _, u := range nearby {
		g.Go(func() error {
			rc := &models.SignalReceipt{
				ID:         s.ids.New(),
				SignalID:   sig.ID,
				ReceiverID: u.UserID,
				Distance:   u.Distance,
				Direction:  u.Direction,
				ReceivedAt: s.clock.Now(),
			}
			created, err := repo.CreateIfAbsent(ctx, rc)
			if err != nil {
				logger.Error(ctx, "receipt not created", "ring", k, "receiver_id", u.UserID, "error", err)
				return nil
			}
			if !created {
				return nil
			}
			metrics.ReceiptsCreated.Inc()
			s.dispatch(ctx, logger, sig, rc)
			return nil
		})
	}
	_ = g.Wait()

	metrics.RingsProcessed.Inc()
	logger.Debug(ctx, "ring processed", "ring", k, "band_min", band.Min, "band_max", band.Max, "matches", len(nearby))
}

// dispatch pushes without holding up the ring.
func (s *SignalService) dispatch(ctx context.Context, logger logging.Logger, sig *models.Signal, rc *models.SignalReceipt) {
	n := models.SignalNotification{
		SignalID:   sig.ID,
		SenderID:   sig.SenderID,
		ReceiverID: rc.ReceiverID,
		Distance:   rc.Distance,
		Unit:       sig.Unit,
		Direction:  rc.Direction,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.pushTimeout)
		defer cancel()

		if err := s.notifier.Notify(pctx, n); err != nil {
			metrics.PushFailures.Inc()
			logger.Warn(pctx, "push notification failed", "receiver_id", n.ReceiverID, "error", err)
		}
	}()
}

func (s *SignalService) expire(ctx context.Context, logger logging.Logger, sig *models.Signal) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.repomanager.Signals(s.db).UpdateStatus(ctx, sig.ID, models.SignalExpired); err != nil {
		logger.Error(ctx, "signal not expired", "error", err)
		return
	}
	sig.Status = models.SignalExpired
	logger.Info(ctx, "signal expired")

	if s.archiver == nil {
		return
	}

	receipts, err := s.repomanager.Receipts(s.db).ListBySignal(ctx, sig.ID)
	if err == nil {
		err = s.archiver.Archive(ctx, sig, receipts)
	}
	if err != nil {
		metrics.ArchiveWrites.WithLabelValues("error").Inc()
		logger.Error(ctx, "signal archive failed", "error", err)
		return
	}
	metrics.ArchiveWrites.WithLabelValues("ok").Inc()
}
