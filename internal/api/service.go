// Package api defines the BowWow gRPC API: message types, the service
// descriptor, a client stub and the JSON codec the messages travel in.
package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "bowwow.SignalService"

const (
	SendSignalMethod      = "/" + ServiceName + "/SendSignal"
	RespondToSignalMethod = "/" + ServiceName + "/RespondToSignal"
	UpdateLocationMethod  = "/" + ServiceName + "/UpdateLocation"
	NearbyUsersMethod     = "/" + ServiceName + "/NearbyUsers"
	ReceivedSignalsMethod = "/" + ServiceName + "/ReceivedSignals"
	GetSignalMethod       = "/" + ServiceName + "/GetSignal"
	CancelSignalMethod    = "/" + ServiceName + "/CancelSignal"
	PingMethod            = "/" + ServiceName + "/Ping"
	GetStatsMethod        = "/" + ServiceName + "/GetStats"
	SignalActivityMethod  = "/" + ServiceName + "/SignalActivity"
	UserActivityMethod    = "/" + ServiceName + "/UserActivity"
)

// SignalServiceServer is the server API.
type SignalServiceServer interface {
	SendSignal(context.Context, *SendSignalRequest) (*SendSignalResponse, error)
	RespondToSignal(context.Context, *RespondToSignalRequest) (*RespondToSignalResponse, error)
	UpdateLocation(context.Context, *UpdateLocationRequest) (*UpdateLocationResponse, error)
	NearbyUsers(context.Context, *NearbyUsersRequest) (*NearbyUsersResponse, error)
	ReceivedSignals(context.Context, *ReceivedSignalsRequest) (*ReceivedSignalsResponse, error)
	GetSignal(context.Context, *GetSignalRequest) (*Signal, error)
	CancelSignal(context.Context, *CancelSignalRequest) (*CancelSignalResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error)
	SignalActivity(context.Context, *ActivityRequest) (*SignalActivityResponse, error)
	UserActivity(context.Context, *ActivityRequest) (*UserActivityResponse, error)
}

// UnimplementedSignalServiceServer answers Unimplemented to every call.
type UnimplementedSignalServiceServer struct{}

func (UnimplementedSignalServiceServer) SendSignal(context.Context, *SendSignalRequest) (*SendSignalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SendSignal not implemented")
}
func (UnimplementedSignalServiceServer) RespondToSignal(context.Context, *RespondToSignalRequest) (*RespondToSignalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RespondToSignal not implemented")
}
func (UnimplementedSignalServiceServer) UpdateLocation(context.Context, *UpdateLocationRequest) (*UpdateLocationResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateLocation not implemented")
}
func (UnimplementedSignalServiceServer) NearbyUsers(context.Context, *NearbyUsersRequest) (*NearbyUsersResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method NearbyUsers not implemented")
}
func (UnimplementedSignalServiceServer) ReceivedSignals(context.Context, *ReceivedSignalsRequest) (*ReceivedSignalsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReceivedSignals not implemented")
}
func (UnimplementedSignalServiceServer) GetSignal(context.Context, *GetSignalRequest) (*Signal, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSignal not implemented")
}
func (UnimplementedSignalServiceServer) CancelSignal(context.Context, *CancelSignalRequest) (*CancelSignalResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelSignal not implemented")
}
func (UnimplementedSignalServiceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedSignalServiceServer) GetStats(context.Context, *GetStatsRequest) (*StatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}
func (UnimplementedSignalServiceServer) SignalActivity(context.Context, *ActivityRequest) (*SignalActivityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignalActivity not implemented")
}
func (UnimplementedSignalServiceServer) UserActivity(context.Context, *ActivityRequest) (*UserActivityResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UserActivity not implemented")
}

func RegisterSignalServiceServer(s grpc.ServiceRegistrar, srv SignalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a MethodDesc handler for one request type.
func unary[Req any, Resp any](name, full string, call func(SignalServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SignalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SignalServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SignalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SendSignal", SendSignalMethod, SignalServiceServer.SendSignal),
		unary("RespondToSignal", RespondToSignalMethod, SignalServiceServer.RespondToSignal),
		unary("UpdateLocation", UpdateLocationMethod, SignalServiceServer.UpdateLocation),
		unary("NearbyUsers", NearbyUsersMethod, SignalServiceServer.NearbyUsers),
		unary("ReceivedSignals", ReceivedSignalsMethod, SignalServiceServer.ReceivedSignals),
		unary("GetSignal", GetSignalMethod, SignalServiceServer.GetSignal),
		unary("CancelSignal", CancelSignalMethod, SignalServiceServer.CancelSignal),
		unary("Ping", PingMethod, SignalServiceServer.Ping),
		unary("GetStats", GetStatsMethod, SignalServiceServer.GetStats),
		unary("SignalActivity", SignalActivityMethod, SignalServiceServer.SignalActivity),
		unary("UserActivity", UserActivityMethod, SignalServiceServer.UserActivity),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bowwow/signal_service",
}

// SignalServiceClient is the client API.
type SignalServiceClient interface {
	SendSignal(ctx context.Context, in *SendSignalRequest, opts ...grpc.CallOption) (*SendSignalResponse, error)
	RespondToSignal(ctx context.Context, in *RespondToSignalRequest, opts ...grpc.CallOption) (*RespondToSignalResponse, error)
	UpdateLocation(ctx context.Context, in *UpdateLocationRequest, opts ...grpc.CallOption) (*UpdateLocationResponse, error)
	NearbyUsers(ctx context.Context, in *NearbyUsersRequest, opts ...grpc.CallOption) (*NearbyUsersResponse, error)
	ReceivedSignals(ctx context.Context, in *ReceivedSignalsRequest, opts ...grpc.CallOption) (*ReceivedSignalsResponse, error)
	GetSignal(ctx context.Context, in *GetSignalRequest, opts ...grpc.CallOption) (*Signal, error)
	CancelSignal(ctx context.Context, in *CancelSignalRequest, opts ...grpc.CallOption) (*CancelSignalResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error)
	SignalActivity(ctx context.Context, in *ActivityRequest, opts ...grpc.CallOption) (*SignalActivityResponse, error)
	UserActivity(ctx context.Context, in *ActivityRequest, opts ...grpc.CallOption) (*UserActivityResponse, error)
}

type signalServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSignalServiceClient returns a client that sends every call with the
// JSON content-subtype.
func NewSignalServiceClient(cc grpc.ClientConnInterface) SignalServiceClient {
	return &signalServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *signalServiceClient) SendSignal(ctx context.Context, in *SendSignalRequest, opts ...grpc.CallOption) (*SendSignalResponse, error) {
	return invoke[SendSignalResponse](ctx, c.cc, SendSignalMethod, in, opts)
}

func (c *signalServiceClient) RespondToSignal(ctx context.Context, in *RespondToSignalRequest, opts ...grpc.CallOption) (*RespondToSignalResponse, error) {
	return invoke[RespondToSignalResponse](ctx, c.cc, RespondToSignalMethod, in, opts)
}

func (c *signalServiceClient) UpdateLocation(ctx context.Context, in *UpdateLocationRequest, opts ...grpc.CallOption) (*UpdateLocationResponse, error) {
	return invoke[UpdateLocationResponse](ctx, c.cc, UpdateLocationMethod, in, opts)
}

func (c *signalServiceClient) NearbyUsers(ctx context.Context, in *NearbyUsersRequest, opts ...grpc.CallOption) (*NearbyUsersResponse, error) {
	return invoke[NearbyUsersResponse](ctx, c.cc, NearbyUsersMethod, in, opts)
}

func (c *signalServiceClient) ReceivedSignals(ctx context.Context, in *ReceivedSignalsRequest, opts ...grpc.CallOption) (*ReceivedSignalsResponse, error) {
	return invoke[ReceivedSignalsResponse](ctx, c.cc, ReceivedSignalsMethod, in, opts)
}

func (c *signalServiceClient) GetSignal(ctx context.Context, in *GetSignalRequest, opts ...grpc.CallOption) (*Signal, error) {
	return invoke[Signal](ctx, c.cc, GetSignalMethod, in, opts)
}

func (c *signalServiceClient) CancelSignal(ctx context.Context, in *CancelSignalRequest, opts ...grpc.CallOption) (*CancelSignalResponse, error) {
	return invoke[CancelSignalResponse](ctx, c.cc, CancelSignalMethod, in, opts)
}

func (c *signalServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingMethod, in, opts)
}

func (c *signalServiceClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c.cc, GetStatsMethod, in, opts)
}

func (c *signalServiceClient) SignalActivity(ctx context.Context, in *ActivityRequest, opts ...grpc.CallOption) (*SignalActivityResponse, error) {
	return invoke[SignalActivityResponse](ctx, c.cc, SignalActivityMethod, in, opts)
}

func (c *signalServiceClient) UserActivity(ctx context.Context, in *ActivityRequest, opts ...grpc.CallOption) (*UserActivityResponse, error) {
	return invoke[UserActivityResponse](ctx, c.cc, UserActivityMethod, in, opts)
}
