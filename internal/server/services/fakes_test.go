package services

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/dbx"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/locations"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/signals"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// store is an in-memory stand-in for all four repositories.
type store struct {
	mu        sync.Mutex
	users     map[string]models.User
	locations map[string]models.LocationRecord
	signals   map[string]models.Signal
	receipts  map[[2]string]models.SignalReceipt

	listErr    error
	createErr  error
	upsertErr  error
	receiptErr error
	countErr   error
}

func newStore() *store {
	return &store{
		users:     map[string]models.User{},
		locations: map[string]models.LocationRecord{},
		signals:   map[string]models.Signal{},
		receipts:  map[[2]string]models.SignalReceipt{},
	}
}

func (s *store) addUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *store) signal(id string) models.Signal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signals[id]
}

func (s *store) receiptsOf(signalID string) []models.SignalReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.SignalReceipt
	for k, r := range s.receipts {
		if k[0] == signalID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceiverID < out[j].ReceiverID })
	return out
}

type fakeUsers struct{ s *store }

func (f fakeUsers) Get(_ context.Context, id string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	u, ok := f.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (f fakeUsers) Count(context.Context) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.countErr != nil {
		return 0, f.s.countErr
	}
	return int64(len(f.s.users)), nil
}

type fakeLocations struct{ s *store }

func (f fakeLocations) CountUpdatedSince(_ context.Context, since time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, r := range f.s.locations {
		if r.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f fakeLocations) Upsert(_ context.Context, rec *models.LocationRecord) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.upsertErr != nil {
		return f.s.upsertErr
	}
	f.s.locations[rec.UserID] = *rec
	return nil
}

func (f fakeLocations) ListActiveWithin(_ context.Context, box geo.Box, now time.Time, exclude string) ([]models.LocationRecord, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.listErr != nil {
		return nil, f.s.listErr
	}
	var out []models.LocationRecord
	for _, r := range f.s.locations {
		p := geo.Point{Latitude: r.GridLatitude, Longitude: r.GridLongitude}
		if r.UserID != exclude && r.ExpiresAt.After(now) && box.Contains(p) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f fakeLocations) GetActive(_ context.Context, userID string, now time.Time) (*models.LocationRecord, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.locations[userID]
	if !ok || !r.ExpiresAt.After(now) {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (f fakeLocations) Purge(_ context.Context, now time.Time) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for id, r := range f.s.locations {
		if !r.ExpiresAt.After(now) {
			delete(f.s.locations, id)
			n++
		}
	}
	return n, nil
}

type fakeSignals struct{ s *store }

func (f fakeSignals) Create(_ context.Context, sig *models.Signal) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.createErr != nil {
		return f.s.createErr
	}
	f.s.signals[sig.ID] = *sig
	return nil
}

func (f fakeSignals) Get(_ context.Context, id string) (*models.Signal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sig, ok := f.s.signals[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &sig, nil
}

func (f fakeSignals) FindLatestActiveSince(_ context.Context, sender string, since time.Time) (*models.Signal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var best *models.Signal
	for _, sig := range f.s.signals {
		if sig.SenderID == sender && sig.Status == models.SignalActive && !sig.SentAt.Before(since) {
			if best == nil || sig.SentAt.After(best.SentAt) {
				cp := sig
				best = &cp
			}
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	return best, nil
}

func (f fakeSignals) UpdateStatus(_ context.Context, id string, status models.SignalStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	sig, ok := f.s.signals[id]
	if !ok {
		return common.ErrorNotFound
	}
	sig.Status = status
	f.s.signals[id] = sig
	return nil
}

func (f fakeSignals) Totals(context.Context) (int64, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var active int64
	for _, sig := range f.s.signals {
		if sig.Status == models.SignalActive {
			active++
		}
	}
	return int64(len(f.s.signals)), active, nil
}

func (f fakeSignals) countSince(since time.Time, key func(models.Signal) int) map[int]int64 {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := map[int]int64{}
	for _, sig := range f.s.signals {
		if sig.SentAt.After(since) {
			out[key(sig)]++
		}
	}
	return out
}

func (f fakeSignals) CountByHourSince(_ context.Context, since time.Time) (map[int]int64, error) {
	return f.countSince(since, func(sig models.Signal) int { return sig.SentAt.UTC().Hour() }), nil
}

func (f fakeSignals) CountByDistanceSince(_ context.Context, since time.Time) (map[int]int64, error) {
	return f.countSince(since, func(sig models.Signal) int { return int(math.Ceil(sig.MaxDistance)) }), nil
}

func (f fakeSignals) CountSendersSince(_ context.Context, since time.Time) (int64, error) {
	return int64(len(f.s.sendersSince(since))), nil
}

func (s *store) sendersSince(since time.Time) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, sig := range s.signals {
		if sig.SentAt.After(since) {
			out[sig.SenderID] = true
		}
	}
	return out
}

func (s *store) receiversSince(since time.Time) map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]bool{}
	for _, r := range s.receipts {
		if r.ReceivedAt.After(since) {
			out[r.ReceiverID] = true
		}
	}
	return out
}

type fakeReceipts struct{ s *store }

func (f fakeReceipts) CountReceiversSince(_ context.Context, since time.Time) (int64, error) {
	return int64(len(f.s.receiversSince(since))), nil
}

func (f fakeReceipts) CountEngagedSince(_ context.Context, since time.Time) (int64, error) {
	engaged := f.s.sendersSince(since)
	for id := range f.s.receiversSince(since) {
		engaged[id] = true
	}
	return int64(len(engaged)), nil
}

func (f fakeReceipts) CreateIfAbsent(_ context.Context, r *models.SignalReceipt) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.receiptErr != nil {
		return false, f.s.receiptErr
	}
	key := [2]string{r.SignalID, r.ReceiverID}
	if _, ok := f.s.receipts[key]; ok {
		return false, nil
	}
	f.s.receipts[key] = *r
	return true, nil
}

func (f fakeReceipts) Find(_ context.Context, signalID, receiverID string) (*models.SignalReceipt, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	r, ok := f.s.receipts[[2]string{signalID, receiverID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (f fakeReceipts) MarkResponded(_ context.Context, signalID, receiverID string, at time.Time) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	key := [2]string{signalID, receiverID}
	r, ok := f.s.receipts[key]
	if !ok {
		return common.ErrorNotFound
	}
	r.Responded = true
	r.RespondedAt = &at
	f.s.receipts[key] = r
	return nil
}

func (f fakeReceipts) ListReceived(_ context.Context, receiverID string, since time.Time) ([]models.ReceivedSignal, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.ReceivedSignal
	for k, r := range f.s.receipts {
		if k[1] != receiverID || r.ReceivedAt.Before(since) {
			continue
		}
		sig := f.s.signals[k[0]]
		out = append(out, models.ReceivedSignal{
			SignalID: r.SignalID, SenderID: sig.SenderID, Distance: r.Distance,
			Direction: r.Direction, Unit: sig.Unit, Responded: r.Responded, ReceivedAt: r.ReceivedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.After(out[j].ReceivedAt) })
	return out, nil
}

func (f fakeReceipts) ListBySignal(_ context.Context, signalID string) ([]models.SignalReceipt, error) {
	out := f.s.receiptsOf(signalID)
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out, nil
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return fakeUsers{m.s} }
func (m *fakeRepoManager) Locations(dbx.DBTX) locations.Repository     { return fakeLocations{m.s} }
func (m *fakeRepoManager) Signals(dbx.DBTX) signals.Repository         { return fakeSignals{m.s} }
func (m *fakeRepoManager) Receipts(dbx.DBTX) receipts.Repository       { return fakeReceipts{m.s} }

// newTxDB returns a sqlmock DB with no expectations; tests that open a
// transaction register theirs on env.mock.
func newTxDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.MatchExpectationsInOrder(true)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
