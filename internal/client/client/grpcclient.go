package client

import (
	"context"
	"fmt"
	"time"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bowwow/internal/api"
	"github.com/dmitrijs2005/bowwow/internal/common"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      api.SignalServiceClient
}

// NewSignalClient connects to endpointURL. Every call is bounded by timeout
// unless the caller's context expires first. Extra dial options are
// appended after the defaults.
func NewSignalClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(grpc_prometheus.UnaryClientInterceptor, s.timeoutInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewSignalServiceClient(conn)
	return nil
}

func (s *GRPCClient) timeoutInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// mapError converts a gRPC status into the matching sentinel, keeping the
// server's message.
func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var target error
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded:
		target = ErrUnavailable
	case codes.InvalidArgument:
		target = ErrInvalidRequest
	case codes.ResourceExhausted:
		target = common.ErrCooldownActive
	case codes.PermissionDenied:
		target = common.ErrNotAuthorized
	case codes.FailedPrecondition:
		target = common.ErrUserOffline
	case codes.NotFound:
		target = common.ErrorNotFound
	case codes.Internal:
		target = common.ErrorInternal
	default:
		return err
	}
	return fmt.Errorf("%w: %s", target, st.Message())
}

func (s *GRPCClient) SendSignal(ctx context.Context, userID string, lat, lng float64, maxDistance *float64) (string, error) {
	resp, err := s.client.SendSignal(ctx, &api.SendSignalRequest{UserID: userID, Latitude: lat, Longitude: lng, MaxDistance: maxDistance})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.SignalID, nil
}

func (s *GRPCClient) RespondToSignal(ctx context.Context, signalID, userID string, lat, lng float64, maxDistance *float64) (string, error) {
	resp, err := s.client.RespondToSignal(ctx, &api.RespondToSignalRequest{
		SignalID: signalID, UserID: userID, Latitude: lat, Longitude: lng, MaxDistance: maxDistance,
	})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.SignalID, nil
}

func (s *GRPCClient) UpdateLocation(ctx context.Context, userID string, lat, lng float64) error {
	if _, err := s.client.UpdateLocation(ctx, &api.UpdateLocationRequest{UserID: userID, Latitude: lat, Longitude: lng}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) NearbyUsers(ctx context.Context, userID string, maxDistance *float64) ([]api.NearbyUser, error) {
	resp, err := s.client.NearbyUsers(ctx, &api.NearbyUsersRequest{UserID: userID, MaxDistance: maxDistance})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Users, nil
}

func (s *GRPCClient) ReceivedSignals(ctx context.Context, userID string) ([]api.ReceivedSignal, error) {
	resp, err := s.client.ReceivedSignals(ctx, &api.ReceivedSignalsRequest{UserID: userID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Signals, nil
}

func (s *GRPCClient) GetSignal(ctx context.Context, signalID string) (*api.Signal, error) {
	resp, err := s.client.GetSignal(ctx, &api.GetSignalRequest{SignalID: signalID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) CancelSignal(ctx context.Context, signalID string) error {
	if _, err := s.client.CancelSignal(ctx, &api.CancelSignalRequest{SignalID: signalID}); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) (*api.PingResponse, error) {
	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Stats(ctx context.Context) (*api.StatsResponse, error) {
	resp, err := s.client.GetStats(ctx, &api.GetStatsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SignalActivity(ctx context.Context, rng string) (*api.SignalActivityResponse, error) {
	resp, err := s.client.SignalActivity(ctx, &api.ActivityRequest{Range: rng})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) UserActivity(ctx context.Context, rng string) (*api.UserActivityResponse, error) {
	resp, err := s.client.UserActivity(ctx, &api.ActivityRequest{Range: rng})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}
