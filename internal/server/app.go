// Package server wires the BowWow server together and runs it: the gRPC
// API, the HTTP side (health, metrics, WebSocket feed), the location purger
// and the signal engine, all bound to one lifecycle.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/bowwow/internal/clock"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/cryptox"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/archive"
	"github.com/dmitrijs2005/bowwow/internal/server/config"
	"github.com/dmitrijs2005/bowwow/internal/server/httpapi"
	"github.com/dmitrijs2005/bowwow/internal/server/hub"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
	"github.com/dmitrijs2005/bowwow/internal/server/push"
	"github.com/dmitrijs2005/bowwow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/bowwow/internal/server/services"
	"github.com/dmitrijs2005/bowwow/internal/server/ws"

	gs "github.com/dmitrijs2005/bowwow/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

// Seams for tests.
var (
	openDB      = repomanager.OpenDB
	newRepoMgr  = repomanager.NewPostgresRepositoryManager
	newArchiver = func(ctx context.Context, c *config.Config) (services.Archiver, error) {
		return archive.NewS3Archiver(ctx, c)
	}
)

var logOutput io.Writer = os.Stdout

// hubPublisher feeds location updates to the hub.
type hubPublisher struct {
	hub *hub.Hub
}

func (p hubPublisher) Broadcast(u models.LocationUpdate) {
	p.hub.Broadcast(u)
}

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	hub       *hub.Hub
	locations *services.LocationService
	signals   *services.SignalService
	grpc      *gs.GRPCServer
	http      *httpapi.Server
}

// NewApp validates c, opens and migrates the database and builds every
// component. It refuses to start without location key material.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(logOutput, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	key, err := c.EncryptionKey()
	if err != nil {
		return nil, err
	}
	codec, err := cryptox.NewLocationCodec(key)
	if err != nil {
		return nil, err
	}

	unit, err := geo.ParseUnit(c.HubUnit)
	if err != nil {
		return nil, err
	}

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := newRepoMgr()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var archiver services.Archiver
	if c.S3Bucket != "" {
		if archiver, err = newArchiver(ctx, c); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive: %w", err)
		}
	}

	users := services.NewUserDirectory(db, rm, c.UserCacheTTL)

	var notifier services.Notifier
	if c.PushEndpoint != "" {
		notifier = push.NewHTTPNotifier(c.PushEndpoint, &http.Client{Timeout: c.PushTimeout}, users, logger)
	} else {
		notifier = push.NewLogNotifier(users, logger)
	}

	h := hub.New(unit, clock.Real{}, logger)
	locations := services.NewLocationService(db, rm, codec, users, hubPublisher{hub: h}, c, services.WithLogger(logger))
	signals := services.NewSignalService(db, rm, locations, users, notifier, archiver, c, services.WithLogger(logger))
	analytics := services.NewAnalyticsService(db, rm, h, services.WithLogger(logger))

	wsHandler := ws.NewHandler(h, c.AllowedOrigins, ws.WithLogger(logger))

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		hub:       h,
		locations: locations,
		signals:   signals,
		grpc:      gs.NewGRPCServer(c.GRPCAddr, logger, signals, locations, analytics, common.Version),
		http:      httpapi.NewServer(c.HTTPAddr, wsHandler, h, c.AllowedOrigins, clock.Real{}, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, an OS signal arrives or a server
// fails. Signal runs in flight are stopped and left active.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.grpc.Run(gctx)
	})
	g.Go(func() error {
		return app.http.Run(gctx)
	})
	g.Go(func() error {
		app.locations.RunPurger(gctx, app.config.PurgeInterval)
		return nil
	})

	err := g.Wait()
	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := app.signals.Shutdown(sctx); serr != nil {
		app.logger.Warn(sctx, "signal runs did not stop in time", "error", serr)
	}

	if cerr := app.db.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}

	app.logger.Info(sctx, "App stopped")
	return err
}
