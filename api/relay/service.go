package relay

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName       = "chatrelay.v1.Relay"
	ConnectMethod     = "/" + ServiceName + "/Connect"
	UnregisterMethod  = "/" + ServiceName + "/Unregister"
	SendMessageMethod = "/" + ServiceName + "/SendMessage"
	GetHistoryMethod  = "/" + ServiceName + "/GetHistory"
	ListClientsMethod = "/" + ServiceName + "/ListClients"
)

// RelayServer is the server API of the relay service.
// Connect registers the caller under a name; the stream delivers its messages
// until either side ends it.
type RelayServer interface {
	Connect(*ConnectRequest, ConnectServer) error
	Unregister(context.Context, *UnregisterRequest) (*Ack, error)
	SendMessage(context.Context, *SendMessageRequest) (*Ack, error)
	GetHistory(context.Context, *GetHistoryRequest) (*GetHistoryResponse, error)
	ListClients(context.Context, *ListClientsRequest) (*ListClientsResponse, error)
}

type ConnectServer interface {
	Send(*ChatEvent) error
	grpc.ServerStream
}

type connectServer struct {
	grpc.ServerStream
}

func (x *connectServer) Send(m *ChatEvent) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc is the grpc.ServiceDesc for the relay service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Unregister",
			Handler: unaryHandler(UnregisterMethod, func(srv RelayServer, ctx context.Context, in *UnregisterRequest) (*Ack, error) {
				return srv.Unregister(ctx, in)
			}),
		},
		{
			MethodName: "SendMessage",
			Handler: unaryHandler(SendMessageMethod, func(srv RelayServer, ctx context.Context, in *SendMessageRequest) (*Ack, error) {
				return srv.SendMessage(ctx, in)
			}),
		},
		{
			MethodName: "GetHistory",
			Handler: unaryHandler(GetHistoryMethod, func(srv RelayServer, ctx context.Context, in *GetHistoryRequest) (*GetHistoryResponse, error) {
				return srv.GetHistory(ctx, in)
			}),
		},
		{
			MethodName: "ListClients",
			Handler: unaryHandler(ListClientsMethod, func(srv RelayServer, ctx context.Context, in *ListClientsRequest) (*ListClientsResponse, error) {
				return srv.ListClients(ctx, in)
			}),
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Connect",
			Handler:       connectHandler,
			ServerStreams: true,
		},
	},
	Metadata: "chatrelay/v1/relay",
}

func unaryHandler[Req, Resp any](method string,
	call func(RelayServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RelayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RelayServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func connectHandler(srv any, stream grpc.ServerStream) error {
	in := new(ConnectRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(RelayServer).Connect(in, &connectServer{stream})
}
