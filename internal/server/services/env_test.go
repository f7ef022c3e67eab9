package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bowwow/internal/cryptox"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/testutil"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	return cfg
}

func testCodec(t *testing.T) *cryptox.LocationCodec {
	t.Helper()
	c, err := cryptox.NewLocationCodec(testKey)
	require.NoError(t, err)
	return c
}

type recordingPublisher struct {
	mu      sync.Mutex
	updates []models.LocationUpdate
}

func (p *recordingPublisher) Broadcast(u models.LocationUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, u)
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []models.SignalNotification
	err   error
	block chan struct{}
}

func (n *recordingNotifier) Notify(ctx context.Context, msg models.SignalNotification) error {
	if n.block != nil {
		select {
		case <-n.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

func (n *recordingNotifier) notifications() []models.SignalNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.SignalNotification(nil), n.sent...)
}

type recordingArchiver struct {
	mu       sync.Mutex
	signals  []models.Signal
	receipts map[string][]models.SignalReceipt
}

func (a *recordingArchiver) Archive(_ context.Context, s *models.Signal, r []models.SignalReceipt) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.receipts == nil {
		a.receipts = map[string][]models.SignalReceipt{}
	}
	a.signals = append(a.signals, *s)
	a.receipts[s.ID] = r
	return nil
}

// env wires both services over one in-memory store and a virtual clock.
type env struct {
	t         *testing.T
	store     *store
	db        *sql.DB
	mock      sqlmock.Sqlmock
	clock     *testutil.FakeClock
	cfg       *config.Config
	users     *UserDirectory
	locations *LocationService
	signals   *SignalService
	notifier  *recordingNotifier
	archiver  *recordingArchiver
	publisher *recordingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{
		t:         t,
		store:     newStore(),
		clock:     testutil.FixedClock(),
		cfg:       testConfig(),
		notifier:  &recordingNotifier{},
		archiver:  &recordingArchiver{},
		publisher: &recordingPublisher{},
	}
	e.cfg.SignalCooldown = time.Hour
	e.cfg.SignalLifetime = 10 * time.Minute
	e.cfg.RingInterval = time.Second

	db, mock := newTxDB(t)
	e.db = db
	e.mock = mock

	m := &fakeRepoManager{s: e.store}
	e.users = NewUserDirectory(db, m, time.Minute)
	e.locations = NewLocationService(db, m, testCodec(t), e.users, e.publisher, e.cfg,
		WithClock(e.clock), WithIDGenerator(testutil.NewPrefixedIDGenerator("loc")))
	e.signals = NewSignalService(db, m, e.locations, e.users, e.notifier, e.archiver, e.cfg,
		WithClock(e.clock), WithIDGenerator(testutil.NewPrefixedIDGenerator("sig")))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = e.signals.Shutdown(ctx)
	})
	return e
}

func (e *env) user(id string, unit geo.Unit) {
	e.store.addUser(models.User{ID: id, DistanceUnit: unit, CreatedAt: e.clock.Now(), UpdatedAt: e.clock.Now()})
}

func (e *env) at(id string, lat, lng float64) {
	e.t.Helper()
	require.NoError(e.t, e.locations.Update(context.Background(), id, lat, lng))
}

// runToExpiry drives a signal with the given ring count through all of its
// rings and its expiry timer, then waits for its run to finish.
func (e *env) runToExpiry(signalID string, rings int) {
	e.t.Helper()
	require.True(e.t, e.clock.BlockUntil(rings, 2*time.Second), "ring timers not armed")
	e.clock.Advance(time.Duration(rings) * e.cfg.RingInterval)
	require.True(e.t, e.clock.BlockUntil(1, 2*time.Second), "expiry timer not armed")
	e.clock.Advance(e.cfg.SignalLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(e.t, e.signals.Wait(ctx, signalID))
}
