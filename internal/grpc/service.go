package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "adpboard.v1.BoardService"

// BoardServiceServer is the server API for the board service. Requests and
// replies are well-known protobuf types, so no generated code is needed.
type BoardServiceServer interface {
	GetBoard(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SortBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FilterBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleDrafted(context.Context, *structpb.Struct) (*structpb.Struct, error)
	BestAvailable(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SearchPlayers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStreamingServer[structpb.Struct]) error
}

// unaryHandler adapts a typed method onto grpc.MethodHandler
func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}](name string, call func(BoardServiceServer, context.Context, PReq) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BoardServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + name}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(BoardServiceServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(BoardServiceServer).StreamEvents(in, &grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream})
}

// ServiceDesc describes BoardService for grpc.Server registration
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BoardServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetBoard", Handler: unaryHandler("GetBoard", BoardServiceServer.GetBoard)},
		{MethodName: "SortBoard", Handler: unaryHandler("SortBoard", BoardServiceServer.SortBoard)},
		{MethodName: "FilterBoard", Handler: unaryHandler("FilterBoard", BoardServiceServer.FilterBoard)},
		{MethodName: "ToggleDrafted", Handler: unaryHandler("ToggleDrafted", BoardServiceServer.ToggleDrafted)},
		{MethodName: "BestAvailable", Handler: unaryHandler("BestAvailable", BoardServiceServer.BestAvailable)},
		{MethodName: "SearchPlayers", Handler: unaryHandler("SearchPlayers", BoardServiceServer.SearchPlayers)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamEvents", Handler: streamEventsHandler, ServerStreams: true},
	},
	Metadata: "adpboard/v1/board.proto",
}

// RegisterBoardServiceServer registers srv on s
func RegisterBoardServiceServer(s grpc.ServiceRegistrar, srv BoardServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls BoardService over an existing connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBoard(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetBoard", &emptypb.Empty{}, opts...)
}

func (c *Client) SortBoard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SortBoard", in, opts...)
}

func (c *Client) FilterBoard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "FilterBoard", in, opts...)
}

func (c *Client) ToggleDrafted(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ToggleDrafted", in, opts...)
}

func (c *Client) BestAvailable(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "BestAvailable", &emptypb.Empty{}, opts...)
}

func (c *Client) SearchPlayers(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "SearchPlayers", in, opts...)
}

// StreamEvents opens the board event stream
func (c *Client) StreamEvents(ctx context.Context, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
