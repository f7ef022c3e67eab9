package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/testutil"
)

type fixedSubs int

func (c fixedSubs) Count() int { return int(c) }

// seedActivity fills s relative to now: three users, two fresh locations,
// one stale one, and signals inside and outside the last hour.
func seedActivity(s *store, now time.Time) {
	for _, id := range []string{"alice", "bob", "carol"} {
		s.addUser(models.User{ID: id, DistanceUnit: geo.Mile})
	}
	s.locations["alice"] = models.LocationRecord{UserID: "alice", CreatedAt: now.Add(-10 * time.Minute)}
	s.locations["bob"] = models.LocationRecord{UserID: "bob", CreatedAt: now.Add(-3 * time.Hour)}
	s.locations["carol"] = models.LocationRecord{UserID: "carol", CreatedAt: now.Add(-48 * time.Hour)}

	s.signals["s1"] = models.Signal{ID: "s1", SenderID: "alice", MaxDistance: 1.5, Status: models.SignalActive, SentAt: now.Add(-5 * time.Minute)}
	s.signals["s2"] = models.Signal{ID: "s2", SenderID: "alice", MaxDistance: 4, Status: models.SignalExpired, SentAt: now.Add(-50 * time.Minute)}
	s.signals["s3"] = models.Signal{ID: "s3", SenderID: "bob", MaxDistance: 10, Status: models.SignalExpired, SentAt: now.Add(-2 * time.Hour)}

	s.receipts[[2]string{"s1", "bob"}] = models.SignalReceipt{SignalID: "s1", ReceiverID: "bob", ReceivedAt: now.Add(-4 * time.Minute)}
	s.receipts[[2]string{"s3", "carol"}] = models.SignalReceipt{SignalID: "s3", ReceiverID: "carol", ReceivedAt: now.Add(-2 * time.Hour)}
}

func newAnalytics(t *testing.T) (*AnalyticsService, *store, *testutil.FakeClock) {
	t.Helper()
	s := newStore()
	c := testutil.FixedClock()
	seedActivity(s, c.Now())
	a := NewAnalyticsService(nil, &fakeRepoManager{s: s}, fixedSubs(2), WithClock(c))
	return a, s, c
}

func TestStats(t *testing.T) {
	a, _, c := newAnalytics(t)

	st, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &models.SystemStats{
		TotalUsers:    3,
		ActiveUsers:   2,
		TotalSignals:  3,
		ActiveSignals: 1,
		Subscriptions: 2,
		Timestamp:     c.Now(),
	}, st)
}

func TestStats_QueryError(t *testing.T) {
	a, s, _ := newAnalytics(t)
	s.countErr = errors.New("db down")

	_, err := a.Stats(context.Background())
	require.ErrorIs(t, err, s.countErr)
}

func TestStats_WithoutFeed(t *testing.T) {
	a := NewAnalyticsService(nil, &fakeRepoManager{s: newStore()}, nil)

	st, err := a.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Subscriptions)
	assert.Zero(t, st.TotalUsers)
}

func TestSignalActivity(t *testing.T) {
	a, _, c := newAnalytics(t)

	got, err := a.SignalActivity(context.Background(), "1h")
	require.NoError(t, err)
	assert.Equal(t, "1h", got.Range)
	assert.Equal(t, int64(2), got.Total)
	assert.Equal(t, map[int]int64{9: 1, 10: 1}, got.ByHour)
	assert.Equal(t, c.Now(), got.Timestamp)
	assert.Equal(t, map[string]int64{"0-2": 1, "3-5": 1}, got.ByDistance)

	got, err = a.SignalActivity(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, DefaultRange, got.Range)
	assert.Equal(t, int64(3), got.Total)
	assert.Equal(t, map[string]int64{"0-2": 1, "3-5": 1, "9-10": 1}, got.ByDistance)
}

func TestActivity_RejectsUnknownRange(t *testing.T) {
	a, _, _ := newAnalytics(t)

	_, err := a.SignalActivity(context.Background(), "2w")
	require.ErrorIs(t, err, common.ErrInvalidRange)
	_, err = a.UserActivity(context.Background(), "forever")
	require.ErrorIs(t, err, common.ErrInvalidRange)
}

func TestUserActivity(t *testing.T) {
	a, _, c := newAnalytics(t)

	got, err := a.UserActivity(context.Background(), "1h")
	require.NoError(t, err)
	assert.Equal(t, &models.UserActivity{
		Range:          "1h",
		ActiveUsers:    1,
		Senders:        1,
		Receivers:      1,
		EngagementRate: 200,
		Timestamp:      c.Now(),
	}, got)

	got, err = a.UserActivity(context.Background(), "7d")
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.ActiveUsers)
	assert.Equal(t, int64(2), got.Senders)
	assert.Equal(t, int64(2), got.Receivers)
	assert.InDelta(t, 100.0, got.EngagementRate, 1e-9)
}

func TestUserActivity_NoActiveUsers(t *testing.T) {
	a := NewAnalyticsService(nil, &fakeRepoManager{s: newStore()}, nil, WithClock(testutil.FixedClock()))

	got, err := a.UserActivity(context.Background(), "24h")
	require.NoError(t, err)
	assert.Zero(t, got.EngagementRate)
}

func TestDistanceRange(t *testing.T) {
	tests := []struct {
		reach int
		want  string
	}{
		{1, "0-2"}, {2, "0-2"}, {3, "3-5"}, {5, "3-5"}, {6, "6-8"}, {8, "6-8"}, {9, "9-10"}, {10, "9-10"}, {11, "10+"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, distanceRange(tt.reach), "reach %d", tt.reach)
	}
}
