// Package spatialgrpc serves the spatial index over gRPC. Messages are plain Go
// structs carried by a JSON codec, so no generated code is involved.
package spatialgrpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
	internaltelemetry "github.com/sushant-115/gojodb-spatial/internal/telemetry"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "gojodb.spatial.SpatialIndex"

// requestIDMetadataKey carries the request ID in metadata, in both directions.
const requestIDMetadataKey = "x-request-id"

// SpatialIndexServer is the server API of the SpatialIndex service.
type SpatialIndexServer interface {
	Insert(context.Context, *PointRequest) (*MutationReply, error)
	Delete(context.Context, *PointRequest) (*MutationReply, error)
	Search(context.Context, *SearchRequest) (*PointsReply, error)
	Nearest(context.Context, *NearestRequest) (*PointsReply, error)
	Stats(context.Context, *StatsRequest) (*StatsReply, error)
}

// Server implements SpatialIndexServer on top of an index manager.
type Server struct {
	index   indexmanager.IndexManager
	logger  *zap.Logger
	metrics *internaltelemetry.RPCMetrics
}

var _ SpatialIndexServer = (*Server)(nil)

// NewServer creates the service. A nil meter records nothing.
func NewServer(index indexmanager.IndexManager, logger *zap.Logger, meter metric.Meter) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	metrics, err := internaltelemetry.NewRPCMetrics(meter)
	if err != nil {
		return nil, err
	}
	return &Server{
		index:   index,
		logger:  logger.Named("spatial_grpc_service"),
		metrics: metrics,
	}, nil
}

// NewGRPCServer builds a grpc.Server with the service registered and its
// interceptor installed ahead of any in extra.
func (s *Server) NewGRPCServer(extra ...grpc.ServerOption) *grpc.Server {
	opts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.UnaryInterceptor())}, extra...)
	g := grpc.NewServer(opts...)
	RegisterSpatialIndexServer(g, s)
	return g
}

func (s *Server) Insert(ctx context.Context, req *PointRequest) (*MutationReply, error) {
	if req.Point == nil {
		return nil, status.Error(codes.InvalidArgument, "point is required")
	}
	changed, err := s.index.Insert(ctx, req.Point.toSpatial())
	if err != nil {
		return nil, toStatus(err)
	}
	return &MutationReply{Changed: changed, Version: s.index.Version()}, nil
}

func (s *Server) Delete(ctx context.Context, req *PointRequest) (*MutationReply, error) {
	if req.Point == nil {
		return nil, status.Error(codes.InvalidArgument, "point is required")
	}
	changed, err := s.index.Delete(ctx, req.Point.toSpatial())
	if err != nil {
		return nil, toStatus(err)
	}
	return &MutationReply{Changed: changed, Version: s.index.Version()}, nil
}

func (s *Server) Search(ctx context.Context, req *SearchRequest) (*PointsReply, error) {
	if req.Min == nil || req.Max == nil {
		return nil, status.Error(codes.InvalidArgument, "min and max are required")
	}
	points, err := s.index.Search(ctx, spatial.NewRect(req.Min.toSpatial(), req.Max.toSpatial()))
	if err != nil {
		return nil, toStatus(err)
	}
	return &PointsReply{Points: fromPoints(points)}, nil
}

func (s *Server) Nearest(ctx context.Context, req *NearestRequest) (*PointsReply, error) {
	if req.Point == nil {
		return nil, status.Error(codes.InvalidArgument, "point is required")
	}
	points, err := s.index.Nearest(ctx, req.Point.toSpatial(), int(req.K))
	if err != nil {
		return nil, toStatus(err)
	}
	return &PointsReply{Points: fromPoints(points)}, nil
}

func (s *Server) Stats(ctx context.Context, _ *StatsRequest) (*StatsReply, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	reply := &StatsReply{
		Size:        int64(stats.Size),
		Height:      int64(stats.Height),
		Nodes:       int64(stats.Nodes),
		Version:     stats.Version,
		Empty:       stats.Bounds.IsEmpty(),
		CacheHits:   stats.CacheHits,
		CacheMisses: stats.CacheMisses,
	}
	if !reply.Empty {
		reply.Min = fromSpatial(stats.Bounds.Min)
		reply.Max = fromSpatial(stats.Bounds.Max)
	}
	return reply, nil
}

// UnaryInterceptor assigns request IDs, logs each call and records the
// RPCMetrics instruments.
func (s *Server) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		method := attribute.String("method", info.FullMethod)

		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(requestIDMetadataKey); len(ids) > 0 {
				requestID = ids[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, requestID))

		s.metrics.RpcsStartedCounter.Add(ctx, 1, metric.WithAttributes(method))
		s.metrics.ActiveRpcsUpDownCounter.Add(ctx, 1, metric.WithAttributes(method))
		resp, err := handler(ctx, req)
		s.metrics.ActiveRpcsUpDownCounter.Add(ctx, -1, metric.WithAttributes(method))

		code := status.Code(err)
		elapsed := time.Since(start)
		s.metrics.RpcsHandledCounter.Add(ctx, 1, metric.WithAttributes(method, attribute.String("code", code.String())))
		s.metrics.RpcLatencyHistogram.Record(ctx, elapsed.Milliseconds(), metric.WithAttributes(method))

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("duration", elapsed),
		}
		if code == codes.Internal || code == codes.Unknown {
			s.logger.Error("gRPC call failed", append(fields, zap.Error(err))...)
		} else {
			s.logger.Debug("gRPC call served", fields...)
		}
		return resp, err
	}
}

// toStatus maps index errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, indexmanager.ErrInvalidPoint), errors.Is(err, indexmanager.ErrInvalidRect):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, indexmanager.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
