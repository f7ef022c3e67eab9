package locations

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

var columns = []string{"id", "user_id", "encrypted_latitude", "encrypted_longitude", "grid_latitude", "grid_longitude", "created_at", "expires_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestUpsert(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	rec := &models.LocationRecord{
		ID: "l-1", UserID: "u-1",
		EncryptedLatitude: "enc-lat", EncryptedLongitude: "enc-lng",
		GridLatitude: 37.77, GridLongitude: -122.42,
		CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
	}

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+user_locations\s*\(id,\s*user_id,\s*encrypted_latitude,\s*encrypted_longitude,.*ON\s+CONFLICT\s+\(user_id\)\s+DO\s+UPDATE\s+SET\s+id\s*=\s*EXCLUDED\.id,.*expires_at\s*=\s*EXCLUDED\.expires_at`).
		WithArgs("l-1", "u-1", "enc-lat", "enc-lng", 37.77, -122.42, now, now.Add(24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Upsert(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(`INSERT\s+INTO\s+user_locations`).WillReturnError(errors.New("db down"))

	err := repo.Upsert(context.Background(), &models.LocationRecord{ID: "l-1", UserID: "u-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

func TestListActiveWithin(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	box := geo.Box{MinLatitude: 37, MaxLatitude: 38, MinLongitude: -123, MaxLongitude: -122}

	rows := sqlmock.NewRows(columns).
		AddRow("l-1", "u-2", "a", "b", 37.78, -122.42, now, now.Add(time.Hour)).
		AddRow("l-2", "u-3", "c", "d", 37.80, -122.27, now, now.Add(time.Hour))

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+user_locations\s+WHERE\s+expires_at\s*>\s*\$1\s+AND\s+user_id\s*<>\s*\$2\s+AND\s+grid_latitude\s+BETWEEN\s+\$3\s+AND\s+\$4\s+AND\s+grid_longitude\s+BETWEEN\s+\$5\s+AND\s+\$6`).
		WithArgs(now, "u-1", 37.0, 38.0, -123.0, -122.0).
		WillReturnRows(rows)

	got, err := repo.ListActiveWithin(context.Background(), box, now, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "u-2", got[0].UserID)
	assert.Equal(t, "d", got[1].EncryptedLongitude)
}

func TestListActiveWithin_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_locations`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListActiveWithin(context.Background(), geo.Box{}, time.Now(), "u-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListActiveWithin_ScanError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(columns).AddRow("l-1", "u-2", "a", "b", "not-a-number", 1.0, time.Now(), time.Now())
	mock.ExpectQuery(`FROM\s+user_locations`).WillReturnRows(rows)

	_, err := repo.ListActiveWithin(context.Background(), geo.Box{}, time.Now(), "u-1")
	require.Error(t, err)
}

func TestGetActive(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)FROM\s+user_locations\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+expires_at\s*>\s*\$2`).
		WithArgs("u-1", now).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l-1", "u-1", "a", "b", 1.0, 2.0, now, now.Add(time.Hour)))

	rec, err := repo.GetActive(context.Background(), "u-1", now)
	require.NoError(t, err)
	assert.Equal(t, "l-1", rec.ID)
}

func TestGetActive_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_locations`).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetActive(context.Background(), "u-1", time.Now())
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestPurge(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+user_locations\s+WHERE\s+expires_at\s*<=\s*\$1`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Purge(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCountUpdatedSince(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	since := time.Now().Add(-time.Hour)

	mock.ExpectQuery(`^SELECT\s+COUNT\(\*\)\s+FROM\s+user_locations\s+WHERE\s+created_at\s*>\s*\$1`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountUpdatedSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUpdatedSince_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+user_locations`).WillReturnError(errors.New("db down"))

	_, err := repo.CountUpdatedSince(context.Background(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}
