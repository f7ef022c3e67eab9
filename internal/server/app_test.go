package server

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bowwow/internal/server/services"
)

type migrator struct {
	repomanager.PostgresRepositoryManager
	err   error
	calls int
}

func (m *migrator) RunMigrations(context.Context, *sql.DB) error {
	m.calls++
	return m.err
}

type nopArchiver struct{}

func (nopArchiver) Archive(context.Context, *models.Signal, []models.SignalReceipt) error { return nil }

// stubDeps swaps the package seams and returns the mock behind openDB.
func stubDeps(t *testing.T) (sqlmock.Sqlmock, *migrator, *int) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	m := &migrator{}
	archivers := 0

	origOpen, origRepo, origArch, origOut := openDB, newRepoMgr, newArchiver, logOutput
	t.Cleanup(func() {
		openDB, newRepoMgr, newArchiver, logOutput = origOpen, origRepo, origArch, origOut
	})

	openDB = func(context.Context, string) (*sql.DB, error) { return db, nil }
	newRepoMgr = func() repomanager.RepositoryManager { return m }
	newArchiver = func(context.Context, *config.Config) (services.Archiver, error) {
		archivers++
		return nopArchiver{}, nil
	}
	logOutput = io.Discard

	return mock, m, &archivers
}

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.GRPCAddr = "127.0.0.1:0"
	c.HTTPAddr = "127.0.0.1:0"
	c.LocationKey = base64.StdEncoding.EncodeToString(make([]byte, 32))
	return c
}

func TestNewApp_RequiresKey(t *testing.T) {
	stubDeps(t)
	opened := false
	openDB = func(context.Context, string) (*sql.DB, error) {
		opened = true
		return nil, errors.New("unreachable")
	}

	c := testConfig()
	c.LocationKey = ""

	_, err := NewApp(context.Background(), c)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidKey)
	assert.False(t, opened, "database must not be opened without a key")
}

func TestNewApp_InvalidConfig(t *testing.T) {
	stubDeps(t)
	c := testConfig()
	c.RingInterval = 0

	_, err := NewApp(context.Background(), c)
	assert.ErrorContains(t, err, "ring_interval")
}

func TestNewApp_DBError(t *testing.T) {
	stubDeps(t)
	openDB = func(context.Context, string) (*sql.DB, error) { return nil, errors.New("connection refused") }

	_, err := NewApp(context.Background(), testConfig())
	assert.ErrorContains(t, err, "db init error")
}

func TestNewApp_MigrationErrorClosesDB(t *testing.T) {
	mock, m, _ := stubDeps(t)
	m.err = errors.New("bad migration")
	mock.ExpectClose()

	_, err := NewApp(context.Background(), testConfig())
	assert.ErrorContains(t, err, "bad migration")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewApp_ArchiverOnlyWithBucket(t *testing.T) {
	_, m, archivers := stubDeps(t)

	_, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, *archivers)
	assert.Equal(t, 1, m.calls)

	c := testConfig()
	c.S3Bucket = "bowwow-archive"
	_, err = NewApp(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, *archivers)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	mock, _, _ := stubDeps(t)
	mock.ExpectClose()

	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("app exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop within timeout after context cancel")
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApp_RunReturnsServerError(t *testing.T) {
	mock, _, _ := stubDeps(t)
	mock.ExpectClose()

	c := testConfig()
	c.GRPCAddr = "127.0.0.1:99999"
	app, err := NewApp(context.Background(), c)
	require.NoError(t, err)

	err = app.Run(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
