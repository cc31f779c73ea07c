// Package weavev1 is the daemon's gRPC contract. Requests and responses are
// protobuf well-known types; structured payloads travel as structpb values
// holding the JSON form of the internal/model types.
package weavev1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "weave.v1.Weave"

const (
	MethodPing          = "/" + ServiceName + "/Ping"
	MethodScan          = "/" + ServiceName + "/Scan"
	MethodLaunch        = "/" + ServiceName + "/Launch"
	MethodRunning       = "/" + ServiceName + "/Running"
	MethodFocus         = "/" + ServiceName + "/Focus"
	MethodKill          = "/" + ServiceName + "/Kill"
	MethodMemory        = "/" + ServiceName + "/Memory"
	MethodReadModConfig = "/" + ServiceName + "/ReadModConfig"
	MethodVerifyLoader  = "/" + ServiceName + "/VerifyLoader"
	MethodAnalytics     = "/" + ServiceName + "/Analytics"
	MethodEvents        = "/" + ServiceName + "/Events"
)

// WeaveServer is implemented by the daemon.
type WeaveServer interface {
	Ping(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
	// Scan returns a list of ProcessRecord objects.
	Scan(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	// Launch takes a LaunchRequest and returns the Instance.
	Launch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Running(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Focus(context.Context, *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	Kill(context.Context, *wrapperspb.UInt32Value) (*wrapperspb.BoolValue, error)
	// Memory returns {"used": bytes, "total": bytes}.
	Memory(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ReadModConfig(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	VerifyLoader(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Analytics(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Events streams bus events until the client goes away.
	Events(*emptypb.Empty, Weave_EventsServer) error
}

type Weave_EventsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type weaveEventsServer struct {
	grpc.ServerStream
}

func (x *weaveEventsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterWeaveServer attaches srv to s.
func RegisterWeaveServer(s grpc.ServiceRegistrar, srv WeaveServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req any, Resp any](call func(WeaveServer, context.Context, *Req) (*Resp, error), method string) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WeaveServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WeaveServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func eventsHandler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(WeaveServer).Events(m, &weaveEventsServer{stream})
}

// ServiceDesc describes weave.v1.Weave for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WeaveServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unary(WeaveServer.Ping, MethodPing)},
		{MethodName: "Scan", Handler: unary(WeaveServer.Scan, MethodScan)},
		{MethodName: "Launch", Handler: unary(WeaveServer.Launch, MethodLaunch)},
		{MethodName: "Running", Handler: unary(WeaveServer.Running, MethodRunning)},
		{MethodName: "Focus", Handler: unary(WeaveServer.Focus, MethodFocus)},
		{MethodName: "Kill", Handler: unary(WeaveServer.Kill, MethodKill)},
		{MethodName: "Memory", Handler: unary(WeaveServer.Memory, MethodMemory)},
		{MethodName: "ReadModConfig", Handler: unary(WeaveServer.ReadModConfig, MethodReadModConfig)},
		{MethodName: "VerifyLoader", Handler: unary(WeaveServer.VerifyLoader, MethodVerifyLoader)},
		{MethodName: "Analytics", Handler: unary(WeaveServer.Analytics, MethodAnalytics)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Events", Handler: eventsHandler, ServerStreams: true},
	},
	Metadata: "weave/v1/weave.proto",
}

// WeaveClient is the client side of weave.v1.Weave.
type WeaveClient interface {
	Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Scan(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Launch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Running(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error)
	Focus(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error)
	Kill(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Memory(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	ReadModConfig(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	VerifyLoader(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Analytics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Events(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (Weave_EventsClient, error)
}

type Weave_EventsClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type weaveClient struct {
	cc grpc.ClientConnInterface
}

func NewWeaveClient(cc grpc.ClientConnInterface) WeaveClient {
	return &weaveClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *weaveClient) Ping(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[wrapperspb.StringValue](ctx, c.cc, MethodPing, in, opts)
}

func (c *weaveClient) Scan(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, MethodScan, in, opts)
}

func (c *weaveClient) Launch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodLaunch, in, opts)
}

func (c *weaveClient) Running(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	return invoke[structpb.ListValue](ctx, c.cc, MethodRunning, in, opts)
}

func (c *weaveClient) Focus(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, MethodFocus, in, opts)
}

func (c *weaveClient) Kill(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, MethodKill, in, opts)
}

func (c *weaveClient) Memory(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodMemory, in, opts)
}

func (c *weaveClient) ReadModConfig(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodReadModConfig, in, opts)
}

func (c *weaveClient) VerifyLoader(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[wrapperspb.BoolValue](ctx, c.cc, MethodVerifyLoader, in, opts)
}

func (c *weaveClient) Analytics(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke[structpb.Struct](ctx, c.cc, MethodAnalytics, in, opts)
}

func (c *weaveClient) Events(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (Weave_EventsClient, error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], MethodEvents, opts...)
	if err != nil {
		return nil, err
	}
	x := &weaveEventsClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type weaveEventsClient struct {
	grpc.ClientStream
}

func (x *weaveEventsClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
