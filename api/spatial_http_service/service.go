// Package spatialhttp serves the spatial index over a JSON HTTP API.
package spatialhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
	"github.com/sushant-115/gojodb-spatial/pkg/treeview"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Options configures a Service.
type Options struct {
	// RequestsPerSecond enables a token-bucket limiter when positive.
	RequestsPerSecond float64
	Burst             int
	// MetricsHandler is mounted at GET /metrics when set.
	MetricsHandler http.Handler
}

// Service routes HTTP requests to an index manager.
type Service struct {
	index   indexmanager.IndexManager
	logger  *zap.Logger
	limiter *rate.Limiter
	handler http.Handler
	started time.Time
}

type requestIDKey struct{}

// New builds the service and its routes.
func New(index indexmanager.IndexManager, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		index:   index,
		logger:  logger.Named("spatial_http_service"),
		started: time.Now(),
	}
	if opts.RequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(opts.Burst, 1))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/spatial", s.handleSpatialRequest)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}
	s.handler = s.withRequestID(s.withLogging(s.withRateLimit(mux)))
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Service) Handler() http.Handler { return s.handler }

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// --- Middleware ---

func (s *Service) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Service) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("HTTP request served",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Service) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && r.URL.Path != "/healthz" && !s.limiter.Allow() {
			s.writeJSON(w, r, http.StatusTooManyRequests, APIResponse{Status: StatusError, Message: "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- Handlers ---

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, APIResponse{Status: StatusOK, Message: "healthy"})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.index.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, r, fmt.Sprintf("%s index up for %s", s.index.Name(), time.Since(s.started).Round(time.Second)), fromStats(stats))
}

// handleSpatialRequest decodes an APIRequest and dispatches on its command.
func (s *Service) handleSpatialRequest(w http.ResponseWriter, r *http.Request) {
	var req APIRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSON(w, r, http.StatusBadRequest, APIResponse{Status: StatusError, Message: fmt.Sprintf("Invalid request format: %v", err)})
		return
	}

	ctx := r.Context()
	command := strings.ToUpper(strings.TrimSpace(req.Command))
	s.logger.Debug("Received spatial command",
		zap.String("request_id", RequestID(ctx)),
		zap.String("command", command))

	switch command {
	case CommandAdd, CommandDelete:
		if req.Point == nil {
			s.badRequest(w, r, command+" requires a point")
			return
		}
		p := req.Point.toSpatial()
		var changed bool
		var err error
		if command == CommandAdd {
			changed, err = s.index.Insert(ctx, p)
		} else {
			changed, err = s.index.Delete(ctx, p)
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		result := MutationResult{Changed: changed, Version: s.index.Version()}
		switch {
		case changed:
			s.writeData(w, r, fmt.Sprintf("%s %v done", command, p), result)
		case command == CommandAdd:
			s.writeData(w, r, fmt.Sprintf("point %v already indexed", p), result)
		default:
			s.writeResponse(w, r, StatusNotFound, fmt.Sprintf("point %v not found", p), result)
		}

	case CommandSearch:
		if req.Rect == nil {
			s.badRequest(w, r, "SEARCH requires a rect")
			return
		}
		points, err := s.index.Search(ctx, req.Rect.toSpatial())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeData(w, r, "", fromSpatialPoints(points))

	case CommandNearest:
		if req.Point == nil {
			s.badRequest(w, r, "NEAREST requires a point")
			return
		}
		points, err := s.index.Nearest(ctx, req.Point.toSpatial(), req.K)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeData(w, r, "", fromSpatialPoints(points))

	case CommandStats:
		stats, err := s.index.Stats(ctx)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeData(w, r, "", fromStats(stats))

	case CommandDump:
		var buf bytes.Buffer
		if err := s.index.Render(ctx, &buf, treeview.Options{Palette: treeview.PlainPalette()}); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeData(w, r, "", DumpResult{Tree: buf.String()})

	default:
		s.badRequest(w, r, fmt.Sprintf("unknown command %q", req.Command))
	}
}

// --- Response helpers ---

func (s *Service) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	s.writeJSON(w, r, http.StatusBadRequest, APIResponse{Status: StatusError, Message: msg})
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, indexmanager.ErrInvalidPoint), errors.Is(err, indexmanager.ErrInvalidRect):
		code = http.StatusBadRequest
	case errors.Is(err, indexmanager.ErrClosed):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.logger.Error("Spatial request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
	}
	s.writeJSON(w, r, code, APIResponse{Status: StatusError, Message: err.Error()})
}

func (s *Service) writeData(w http.ResponseWriter, r *http.Request, msg string, data any) {
	s.writeResponse(w, r, StatusOK, msg, data)
}

func (s *Service) writeResponse(w http.ResponseWriter, r *http.Request, status, msg string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encode response: %w", err))
		return
	}
	s.writeJSON(w, r, http.StatusOK, APIResponse{Status: status, Message: msg, Data: raw})
}

func (s *Service) writeJSON(w http.ResponseWriter, r *http.Request, code int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("Failed to write response",
			zap.String("request_id", RequestID(r.Context())),
			zap.Error(err))
	}
}
