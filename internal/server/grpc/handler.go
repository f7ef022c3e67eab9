package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/bowwow/internal/api"
	"github.com/dmitrijs2005/bowwow/internal/common"
	"github.com/dmitrijs2005/bowwow/internal/geo"
)

func reach(d *float64) float64 {
	if d == nil {
		return common.MaxSignalDistance
	}
	return *d
}

func requireID(name, v string) error {
	if v == "" {
		return status.Error(codes.InvalidArgument, name+" is required")
	}
	return nil
}

// toStatus maps service errors to gRPC status codes.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var ce *common.CooldownError
	switch {
	case errors.As(err, &ce):
		return status.Error(codes.ResourceExhausted, ce.Error())
	case errors.Is(err, common.ErrInvalidLocation),
		errors.Is(err, common.ErrInvalidDistance),
		errors.Is(err, common.ErrInvalidMessage),
		errors.Is(err, common.ErrInvalidRange):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrNotAuthorized):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrUserOffline):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrShuttingDown):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	s.logger.Error(ctx, "internal error", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) SendSignal(ctx context.Context, req *api.SendSignalRequest) (*api.SendSignalResponse, error) {
	if err := requireID("user_id", req.UserID); err != nil {
		return nil, err
	}

	origin := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	id, err := s.signals.Send(ctx, req.UserID, origin, reach(req.MaxDistance))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.SendSignalResponse{SignalID: id}, nil
}

func (s *GRPCServer) RespondToSignal(ctx context.Context, req *api.RespondToSignalRequest) (*api.RespondToSignalResponse, error) {
	if err := requireID("signal_id", req.SignalID); err != nil {
		return nil, err
	}
	if err := requireID("user_id", req.UserID); err != nil {
		return nil, err
	}

	origin := geo.Point{Latitude: req.Latitude, Longitude: req.Longitude}
	id, err := s.signals.Respond(ctx, req.SignalID, req.UserID, origin, reach(req.MaxDistance))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.RespondToSignalResponse{SignalID: id}, nil
}

func (s *GRPCServer) UpdateLocation(ctx context.Context, req *api.UpdateLocationRequest) (*api.UpdateLocationResponse, error) {
	if err := requireID("user_id", req.UserID); err != nil {
		return nil, err
	}

	if err := s.locations.Update(ctx, req.UserID, req.Latitude, req.Longitude); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.UpdateLocationResponse{}, nil
}

func (s *GRPCServer) NearbyUsers(ctx context.Context, req *api.NearbyUsersRequest) (*api.NearbyUsersResponse, error) {
	if err := requireID("user_id", req.UserID); err != nil {
		return nil, err
	}

	users, err := s.locations.NearbyUsersOf(ctx, req.UserID, reach(req.MaxDistance))
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.NearbyUsersResponse{Users: make([]api.NearbyUser, 0, len(users))}
	for _, u := range users {
		resp.Users = append(resp.Users, api.NearbyUser{
			UserID:    u.UserID,
			Distance:  u.Distance,
			Direction: u.Direction,
			LastSeen:  u.LastSeen,
		})
	}
	return resp, nil
}

func (s *GRPCServer) ReceivedSignals(ctx context.Context, req *api.ReceivedSignalsRequest) (*api.ReceivedSignalsResponse, error) {
	if err := requireID("user_id", req.UserID); err != nil {
		return nil, err
	}

	received, err := s.signals.ReceivedSignals(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	resp := &api.ReceivedSignalsResponse{Signals: make([]api.ReceivedSignal, 0, len(received))}
	for _, r := range received {
		resp.Signals = append(resp.Signals, api.ReceivedSignal{
			SignalID:   r.SignalID,
			SenderID:   r.SenderID,
			Distance:   r.Distance,
			Direction:  r.Direction,
			Unit:       string(r.Unit),
			Responded:  r.Responded,
			ReceivedAt: r.ReceivedAt,
		})
	}
	return resp, nil
}

func (s *GRPCServer) GetSignal(ctx context.Context, req *api.GetSignalRequest) (*api.Signal, error) {
	if err := requireID("signal_id", req.SignalID); err != nil {
		return nil, err
	}

	sig, err := s.signals.GetSignal(ctx, req.SignalID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.Signal{
		ID:          sig.ID,
		SenderID:    sig.SenderID,
		Latitude:    sig.Latitude,
		Longitude:   sig.Longitude,
		MaxDistance: sig.MaxDistance,
		Unit:        string(sig.Unit),
		Status:      string(sig.Status),
		SentAt:      sig.SentAt,
		ExpiresAt:   sig.ExpiresAt,
	}, nil
}

func (s *GRPCServer) CancelSignal(ctx context.Context, req *api.CancelSignalRequest) (*api.CancelSignalResponse, error) {
	if err := requireID("signal_id", req.SignalID); err != nil {
		return nil, err
	}

	if err := s.signals.Cancel(ctx, req.SignalID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.CancelSignalResponse{}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK", Version: s.version, Timestamp: s.now().UTC()}, nil
}

func (s *GRPCServer) GetStats(ctx context.Context, req *api.GetStatsRequest) (*api.StatsResponse, error) {
	st, err := s.analytics.Stats(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.StatsResponse{
		TotalUsers:    st.TotalUsers,
		ActiveUsers:   st.ActiveUsers,
		TotalSignals:  st.TotalSignals,
		ActiveSignals: st.ActiveSignals,
		Subscriptions: st.Subscriptions,
		Timestamp:     st.Timestamp.UTC(),
	}, nil
}

func (s *GRPCServer) SignalActivity(ctx context.Context, req *api.ActivityRequest) (*api.SignalActivityResponse, error) {
	a, err := s.analytics.SignalActivity(ctx, req.Range)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.SignalActivityResponse{
		Range:      a.Range,
		ByHour:     a.ByHour,
		ByDistance: a.ByDistance,
		Total:      a.Total,
		Timestamp:  a.Timestamp.UTC(),
	}, nil
}

func (s *GRPCServer) UserActivity(ctx context.Context, req *api.ActivityRequest) (*api.UserActivityResponse, error) {
	a, err := s.analytics.UserActivity(ctx, req.Range)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &api.UserActivityResponse{
		Range:          a.Range,
		ActiveUsers:    a.ActiveUsers,
		Senders:        a.Senders,
		Receivers:      a.Receivers,
		EngagementRate: a.EngagementRate,
		Timestamp:      a.Timestamp.UTC(),
	}, nil
}
