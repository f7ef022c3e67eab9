package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/locations"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/receipts"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/signals"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)

	m := NewPostgresRepositoryManager()

	assert.IsType(t, &users.PostgresRepository{}, m.Users(db))
	assert.IsType(t, &locations.PostgresRepository{}, m.Locations(db))
	assert.IsType(t, &signals.PostgresRepository{}, m.Signals(db))
	assert.IsType(t, &receipts.PostgresRepository{}, m.Receipts(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}

func TestOpenDB(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	defer func() { sqlOpen = orig }()

	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		return db, nil
	}
	mock.ExpectPing()
	got, err := OpenDB(context.Background(), "postgres://x")
	require.NoError(t, err)
	assert.Same(t, db, got)

	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }
	_, err = OpenDB(context.Background(), "::")
	assert.ErrorContains(t, err, "db open error")
}

func TestOpenDB_PingError(t *testing.T) {
	db, mock := newDB(t)

	orig := sqlOpen
	defer func() { sqlOpen = orig }()
	sqlOpen = func(string, string) (*sql.DB, error) { return db, nil }

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	_, err := OpenDB(context.Background(), "postgres://x")
	assert.ErrorContains(t, err, "db ping error")
}
