package publisher

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "waypoint.WindowService"

const streamWindowsMethod = "/" + ServiceName + "/StreamWindows"

// WindowServiceServer is the server API for the window stream.
type WindowServiceServer interface {
	StreamWindows(*emptypb.Empty, WindowService_StreamWindowsServer) error
}

// WindowService_StreamWindowsServer is the server side of StreamWindows.
type WindowService_StreamWindowsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type windowServiceStreamWindowsServer struct {
	grpc.ServerStream
}

func (x *windowServiceStreamWindowsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

func _WindowService_StreamWindows_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(WindowServiceServer).StreamWindows(m, &windowServiceStreamWindowsServer{stream})
}

// WindowServiceDesc describes the window stream for grpc.Server.RegisterService.
var WindowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WindowServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamWindows",
			Handler:       _WindowService_StreamWindows_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "waypoint/window_service.proto",
}

// RegisterWindowServiceServer registers srv on s.
func RegisterWindowServiceServer(s grpc.ServiceRegistrar, srv WindowServiceServer) {
	s.RegisterService(&WindowServiceDesc, srv)
}

// Client subscribes to a remote window stream.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// WindowStream yields decoded windows.
type WindowStream struct {
	stream grpc.ClientStream
}

// StreamWindows opens a window subscription.
func (c *Client) StreamWindows(ctx context.Context, opts ...grpc.CallOption) (*WindowStream, error) {
	stream, err := c.cc.NewStream(ctx, &WindowServiceDesc.Streams[0], streamWindowsMethod, opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &WindowStream{stream: stream}, nil
}

// Recv blocks for the next window.
func (s *WindowStream) Recv() (*trajectory.Window, error) {
	m := new(structpb.Struct)
	if err := s.stream.RecvMsg(m); err != nil {
		return nil, err
	}
	return WindowFromStruct(m)
}
