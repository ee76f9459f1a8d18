package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "clipstash.v1.History"

// HistoryServer is the server API for the History service.
type HistoryServer interface {
	List(context.Context, *ListRequest) (*ListResponse, error)
	Record(context.Context, *RecordRequest) (*RecordResponse, error)
	TogglePin(context.Context, *ItemRequest) (*Empty, error)
	AddTag(context.Context, *TagRequest) (*Empty, error)
	RemoveTag(context.Context, *TagRequest) (*Empty, error)
	Clear(context.Context, *Empty) (*Empty, error)
	CopyOut(context.Context, *ItemRequest) (*Empty, error)
	Tags(context.Context, *Empty) (*TagsResponse, error)
	Status(context.Context, *Empty) (*StatusResponse, error)
	Watch(*WatchRequest, grpc.ServerStream) error
}

// Register registers srv on s. s must have been created with
// grpc.ForceServerCodec(Codec).
func Register(s grpc.ServiceRegistrar, srv HistoryServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HistoryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("List", HistoryServer.List),
		unary("Record", HistoryServer.Record),
		unary("TogglePin", HistoryServer.TogglePin),
		unary("AddTag", HistoryServer.AddTag),
		unary("RemoveTag", HistoryServer.RemoveTag),
		unary("Clear", HistoryServer.Clear),
		unary("CopyOut", HistoryServer.CopyOut),
		unary("Tags", HistoryServer.Tags),
		unary("Status", HistoryServer.Status),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "clipstash/v1/history.json",
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds the method descriptor for a request/response call.
func unary[Req, Resp any](name string, call func(HistoryServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(HistoryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(HistoryServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(HistoryServer).Watch(in, stream)
}
