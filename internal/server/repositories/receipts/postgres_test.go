package receipts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "signal_id", "receiver_id", "distance", "direction", "responded", "received_at", "responded_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

const insertQuery = `(?s)^INSERT\s+INTO\s+signal_receipts.*ON\s+CONFLICT\s*\(signal_id,\s*receiver_id\)\s*DO\s+NOTHING`

func TestCreateIfAbsent(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	rc := &models.SignalReceipt{ID: "r-1", SignalID: "s-1", ReceiverID: "u-2", Distance: 0.69, Direction: "N", ReceivedAt: now}

	mock.ExpectExec(insertQuery).
		WithArgs("r-1", "s-1", "u-2", 0.69, "N", false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	created, err := repo.CreateIfAbsent(context.Background(), rc)
	require.NoError(t, err)
	assert.True(t, created)

	mock.ExpectExec(insertQuery).
		WillReturnResult(sqlmock.NewResult(0, 0))
	created, err = repo.CreateIfAbsent(context.Background(), rc)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateIfAbsent_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(insertQuery).WillReturnError(errors.New("boom"))

	_, err := repo.CreateIfAbsent(context.Background(), &models.SignalReceipt{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: boom")
}

func TestFind(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+signal_receipts\s+WHERE\s+signal_id\s*=\s*\$1\s+AND\s+receiver_id\s*=\s*\$2`).
		WithArgs("s-1", "u-2").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r-1", "s-1", "u-2", 0.7, "N", true, now, now))

	rc, err := repo.Find(context.Background(), "s-1", "u-2")
	require.NoError(t, err)
	assert.True(t, rc.Responded)
	require.NotNil(t, rc.RespondedAt)
	assert.Equal(t, now, *rc.RespondedAt)
}

func TestFind_NullRespondedAt(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+signal_receipts`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("r-1", "s-1", "u-2", 0.7, "N", false, time.Now(), nil))

	rc, err := repo.Find(context.Background(), "s-1", "u-2")
	require.NoError(t, err)
	assert.Nil(t, rc.RespondedAt)
}

func TestFind_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+signal_receipts`).WillReturnError(sql.ErrNoRows)

	_, err := repo.Find(context.Background(), "s-1", "u-2")
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestMarkResponded(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`(?s)^UPDATE\s+signal_receipts\s+SET\s+responded\s*=\s*TRUE,\s*responded_at\s*=\s*\$1`).
		WithArgs(now, "s-1", "u-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.MarkResponded(context.Background(), "s-1", "u-2", now))

	mock.ExpectExec(`UPDATE\s+signal_receipts`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.MarkResponded(context.Background(), "s-1", "u-3", now)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestListReceived(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	since := now.Add(-24 * time.Hour)

	rows := sqlmock.NewRows([]string{"signal_id", "sender_id", "distance", "direction", "distance_unit", "responded", "received_at"}).
		AddRow("s-2", "u-9", 1.5, "SE", "km", false, now).
		AddRow("s-1", "u-1", 0.7, "N", "mile", true, now.Add(-time.Hour))

	mock.ExpectQuery(`(?s)FROM\s+signal_receipts\s+r\s+JOIN\s+signals\s+s\s+ON\s+s\.id\s*=\s*r\.signal_id.*ORDER\s+BY\s+r\.received_at\s+DESC`).
		WithArgs("u-2", since).
		WillReturnRows(rows)

	got, err := repo.ListReceived(context.Background(), "u-2", since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s-2", got[0].SignalID)
	assert.Equal(t, geo.Kilometer, got[0].Unit)
	assert.True(t, got[1].Responded)
}

func TestListBySignal(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+signal_receipts\s+WHERE\s+signal_id\s*=\s*\$1\s+ORDER\s+BY\s+distance`).
		WithArgs("s-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("r-1", "s-1", "u-2", 0.7, "N", false, now, nil).
			AddRow("r-2", "s-1", "u-3", 1.7, "E", false, now, nil))

	got, err := repo.ListBySignal(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-3", got[1].ReceiverID)
}

func TestListBySignal_QueryError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+signal_receipts`).WillReturnError(errors.New("timeout"))

	_, err := repo.ListBySignal(context.Background(), "s-1")
	require.Error(t, err)
}

func TestCountReceiversSince(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`^SELECT\s+COUNT\(DISTINCT\s+receiver_id\)\s+FROM\s+signal_receipts\s+WHERE\s+received_at\s*>\s*\$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))

	n, err := repo.CountReceiversSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEngagedSince(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`(?s)^SELECT\s+COUNT\(\*\)\s+FROM\s+\(\s*SELECT\s+sender_id\s+AS\s+user_id\s+FROM\s+signals\s+WHERE\s+sent_at\s*>\s*\$1\s+UNION\s+SELECT\s+receiver_id\s+FROM\s+signal_receipts\s+WHERE\s+received_at\s*>\s*\$1\s*\)`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	n, err := repo.CountEngagedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountEngagedSince_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`UNION`).WillReturnError(errors.New("db down"))

	_, err := repo.CountEngagedSince(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}
