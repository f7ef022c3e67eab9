package cli

import (
	"context"
	"io"

	"github.com/dmitrijs2005/bowwow/internal/api"
	"github.com/dmitrijs2005/bowwow/internal/client/client"
	"github.com/dmitrijs2005/bowwow/internal/client/config"
	"github.com/dmitrijs2005/bowwow/internal/server/hub"
)

type signalAPI interface {
	SendSignal(ctx context.Context, userID string, lat, lng float64, maxDistance *float64) (string, error)
	RespondToSignal(ctx context.Context, signalID, userID string, lat, lng float64, maxDistance *float64) (string, error)
	UpdateLocation(ctx context.Context, userID string, lat, lng float64) error
	NearbyUsers(ctx context.Context, userID string, maxDistance *float64) ([]api.NearbyUser, error)
	ReceivedSignals(ctx context.Context, userID string) ([]api.ReceivedSignal, error)
	GetSignal(ctx context.Context, signalID string) (*api.Signal, error)
	CancelSignal(ctx context.Context, signalID string) error
	Ping(ctx context.Context) (*api.PingResponse, error)
	Stats(ctx context.Context) (*api.StatsResponse, error)
	SignalActivity(ctx context.Context, rng string) (*api.SignalActivityResponse, error)
	UserActivity(ctx context.Context, rng string) (*api.UserActivityResponse, error)
	Close() error
}

type watcher interface {
	Watch(ctx context.Context, sub client.Subscription, fn func(hub.Outbound) error) error
}

type App struct {
	config *config.Config
	out    io.Writer
	in     io.Reader
	json   bool

	dial       func(cfg *config.Config) (signalAPI, error)
	newWatcher func(url string) watcher
}

func NewApp(out io.Writer, in io.Reader) *App {
	return &App{
		out: out,
		in:  in,
		dial: func(cfg *config.Config) (signalAPI, error) {
			return client.NewSignalClient(cfg.ServerEndpointAddr, cfg.RequestTimeout)
		},
		newWatcher: func(url string) watcher { return client.NewWatcher(url) },
	}
}

// withClient dials the server, runs fn and closes the connection.
func (a *App) withClient(fn func(c signalAPI) error) error {
	c, err := a.dial(a.config)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}
