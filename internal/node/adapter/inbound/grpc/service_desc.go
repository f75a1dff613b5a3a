package grpc_handler

import (
	"context"

	"google.golang.org/grpc"

	"github.com/anthanhphan/go-distributed-kv/internal/node/wire"
)

// storeServiceDesc describes kv.v1.StoreService. Messages are encoded by the
// wire codec, which clients select with the wire.CodecName content subtype.
var storeServiceDesc = grpc.ServiceDesc{
	ServiceName: wire.ServiceName,
	HandlerType: (*storeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler: unaryHandler(wire.GetMethod, func(s storeServiceServer, ctx context.Context, req *wire.GetRequest) (any, error) {
				return s.Get(ctx, req)
			}),
		},
		{
			MethodName: "Put",
			Handler: unaryHandler(wire.PutMethod, func(s storeServiceServer, ctx context.Context, req *wire.PutRequest) (any, error) {
				return s.Put(ctx, req)
			}),
		},
		{
			MethodName: "Delete",
			Handler: unaryHandler(wire.DeleteMethod, func(s storeServiceServer, ctx context.Context, req *wire.DeleteRequest) (any, error) {
				return s.Delete(ctx, req)
			}),
		},
		{
			MethodName: "Topology",
			Handler: unaryHandler(wire.TopologyMethod, func(s storeServiceServer, ctx context.Context, req *wire.TopologyRequest) (any, error) {
				return s.Topology(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

// unaryHandler decodes a request of type Req and dispatches it, running the
// server's interceptor chain when one is installed.
func unaryHandler[Req any, PReq interface {
	*Req
	wire.Message
}](fullMethod string, call func(storeServiceServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(storeServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}
