package grpc_handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service only exchanges well-known wrapper types, so its descriptor is
// declared here instead of being generated from a .proto file:
//
//	service IDService {
//	  rpc NextID(google.protobuf.Empty) returns (google.protobuf.Int64Value);
//	  rpc NextIDs(google.protobuf.UInt32Value) returns (stream google.protobuf.Int64Value);
//	}
const (
	ServiceName       = "idgen.v1.IDService"
	NextIDMethodName  = "/" + ServiceName + "/NextID"
	NextIDsMethodName = "/" + ServiceName + "/NextIDs"
)

// IDServiceServer is the server API for IDService.
type IDServiceServer interface {
	NextID(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	NextIDs(*wrapperspb.UInt32Value, IDService_NextIDsServer) error
}

type IDService_NextIDsServer = grpc.ServerStreamingServer[wrapperspb.Int64Value]

// RegisterIDServiceServer registers srv on s.
func RegisterIDServiceServer(s grpc.ServiceRegistrar, srv IDServiceServer) {
	s.RegisterService(&idServiceDesc, srv)
}

var idServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IDServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "NextID",
			Handler:    nextIDHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "NextIDs",
			Handler:       nextIDsHandler,
			ServerStreams: true,
		},
	},
}

func nextIDHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IDServiceServer).NextID(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: NextIDMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IDServiceServer).NextID(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func nextIDsHandler(srv interface{}, stream grpc.ServerStream) error {
	m := new(wrapperspb.UInt32Value)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(IDServiceServer).NextIDs(m, &grpc.GenericServerStream[wrapperspb.UInt32Value, wrapperspb.Int64Value]{ServerStream: stream})
}

// IDServiceClient is the client API for IDService.
type IDServiceClient interface {
	NextID(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	NextIDs(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.Int64Value], error)
}

type idServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewIDServiceClient(cc grpc.ClientConnInterface) IDServiceClient {
	return &idServiceClient{cc}
}

func (c *idServiceClient) NextID(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, NextIDMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *idServiceClient) NextIDs(ctx context.Context, in *wrapperspb.UInt32Value, opts ...grpc.CallOption) (grpc.ServerStreamingClient[wrapperspb.Int64Value], error) {
	stream, err := c.cc.NewStream(ctx, &idServiceDesc.Streams[0], NextIDsMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[wrapperspb.UInt32Value, wrapperspb.Int64Value]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
