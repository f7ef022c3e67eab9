package grpc

import (
	"context"
	"net"
	"time"

	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"

	"github.com/dmitrijs2005/bowwow/internal/api"
	"github.com/dmitrijs2005/bowwow/internal/geo"
	"github.com/dmitrijs2005/bowwow/internal/logging"
	"github.com/dmitrijs2005/bowwow/internal/server/models"
)

// SignalEngine is the part of services.SignalService the API exposes.
type SignalEngine interface {
	Send(ctx context.Context, senderID string, origin geo.Point, maxDistance float64) (string, error)
	Respond(ctx context.Context, originalSignalID, responderID string, origin geo.Point, maxDistance float64) (string, error)
	ReceivedSignals(ctx context.Context, receiverID string) ([]models.ReceivedSignal, error)
	GetSignal(ctx context.Context, signalID string) (*models.Signal, error)
	Cancel(ctx context.Context, signalID string) error
}

// LocationStore is the part of services.LocationService the API exposes.
type LocationStore interface {
	Update(ctx context.Context, userID string, lat, lng float64) error
	NearbyUsersOf(ctx context.Context, userID string, maxDistance float64) ([]models.NearbyUser, error)
}

// Analytics is the part of services.AnalyticsService the API exposes.
type Analytics interface {
	Stats(ctx context.Context) (*models.SystemStats, error)
	SignalActivity(ctx context.Context, rng string) (*models.SignalActivity, error)
	UserActivity(ctx context.Context, rng string) (*models.UserActivity, error)
}

type GRPCServer struct {
	api.UnimplementedSignalServiceServer
	address   string
	signals   SignalEngine
	locations LocationStore
	analytics Analytics
	logger    logging.Logger
	version   string
	now       func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, signals SignalEngine, locations LocationStore, analytics Analytics, version string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		signals:   signals,
		locations: locations,
		analytics: analytics,
		version:   version,
		now:       time.Now,
	}
}

// newServer builds the grpc.Server with the interceptor chain and the
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpc_recovery.UnaryServerInterceptor(grpc_recovery.WithRecoveryHandlerContext(s.recoveryHandler)),
		grpc_prometheus.UnaryServerInterceptor,
		s.loggingInterceptor,
	))

	api.RegisterSignalServiceServer(srv, s)
	grpc_prometheus.Register(srv)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
