package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "lifecycle.v1.StatusService"

const (
	methodApplyJobAction         = "/" + ServiceName + "/ApplyJobAction"
	methodApplyApplicationAction = "/" + ServiceName + "/ApplyApplicationAction"
)

// StatusServiceServer is the server API for lifecycle.v1.StatusService.
type StatusServiceServer interface {
	ApplyJobAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyApplicationAction(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Register mounts srv on s.
func Register(s grpc.ServiceRegistrar, srv StatusServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes lifecycle.v1.StatusService. Both methods use
// google.protobuf.Struct for request and response.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StatusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ApplyJobAction", Handler: applyJobActionHandler},
		{MethodName: "ApplyApplicationAction", Handler: applyApplicationActionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lifecycle/v1/status.proto",
}

func applyJobActionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).ApplyJobAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodApplyJobAction}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).ApplyJobAction(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func applyApplicationActionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).ApplyApplicationAction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodApplyApplicationAction}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).ApplyApplicationAction(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Client calls lifecycle.v1.StatusService.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// ApplyJobAction calls the ApplyJobAction RPC.
func (c *Client) ApplyJobAction(ctx context.Context, jobNumber, action string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodApplyJobAction, jobNumber, action, opts)
}

// ApplyApplicationAction calls the ApplyApplicationAction RPC.
func (c *Client) ApplyApplicationAction(ctx context.Context, id, action string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.call(ctx, methodApplyApplicationAction, id, action, opts)
}

func (c *Client) call(ctx context.Context, method, id, action string, opts []grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id, "action": action})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
