package spatialgrpc

import (
	"context"

	"google.golang.org/grpc"
)

// Full method names.
const (
	InsertMethod  = "/" + ServiceName + "/Insert"
	DeleteMethod  = "/" + ServiceName + "/Delete"
	SearchMethod  = "/" + ServiceName + "/Search"
	NearestMethod = "/" + ServiceName + "/Nearest"
	StatsMethod   = "/" + ServiceName + "/Stats"
)

// RegisterSpatialIndexServer registers srv on s.
func RegisterSpatialIndexServer(s grpc.ServiceRegistrar, srv SpatialIndexServer) {
	s.RegisterService(&spatialIndexServiceDesc, srv)
}

var spatialIndexServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SpatialIndexServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Insert", Handler: insertHandler},
		{MethodName: "Delete", Handler: deleteHandler},
		{MethodName: "Search", Handler: searchHandler},
		{MethodName: "Nearest", Handler: nearestHandler},
		{MethodName: "Stats", Handler: statsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gojodb/spatial",
}

// unary adapts a typed method to grpc's handler signature, running the
// interceptor chain when one is installed.
func unary[Req any, Resp any](fullMethod string, call func(SpatialIndexServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SpatialIndexServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SpatialIndexServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	insertHandler  = unary(InsertMethod, SpatialIndexServer.Insert)
	deleteHandler  = unary(DeleteMethod, SpatialIndexServer.Delete)
	searchHandler  = unary(SearchMethod, SpatialIndexServer.Search)
	nearestHandler = unary(NearestMethod, SpatialIndexServer.Nearest)
	statsHandler   = unary(StatsMethod, SpatialIndexServer.Stats)
)
