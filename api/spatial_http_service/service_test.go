package spatialhttp

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
)

// --- Test Helpers ---

func newTestService(t *testing.T, opts Options) (*Service, *indexmanager.SpatialIndexManager) {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	index, err := indexmanager.NewSpatialIndexManager(indexmanager.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return New(index, logger, opts), index
}

func post(t *testing.T, s *Service, req APIRequest) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	return postRaw(t, s, string(body))
}

func postRaw(t *testing.T, s *Service, body string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/spatial", strings.NewReader(body)))
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func decodeData[T any](t *testing.T, resp APIResponse) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(resp.Data, &out))
	return out
}

func add(t *testing.T, s *Service, points ...Point) {
	t.Helper()
	for _, p := range points {
		p := p
		rec, resp := post(t, s, APIRequest{Command: CommandAdd, Point: &p})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, StatusOK, resp.Status, resp.Message)
	}
}

// --- Test Cases ---

func TestService_AddSearchNearest(t *testing.T) {
	s, _ := newTestService(t, Options{})
	add(t, s, Point{1, 1}, Point{2, 2}, Point{8, 8}, Point{9, 9}, Point{1, 9}, Point{9, 1})

	_, resp := post(t, s, APIRequest{Command: "search", Rect: &Rect{Min: Point{3, 3}, Max: Point{0, 0}}})
	require.Equal(t, StatusOK, resp.Status)
	found := decodeData[PointsResult](t, resp)
	require.Equal(t, 2, found.Count)
	require.ElementsMatch(t, []Point{{1, 1}, {2, 2}}, found.Points)

	_, resp = post(t, s, APIRequest{Command: CommandNearest, Point: &Point{0, 0}, K: 2})
	require.Equal(t, StatusOK, resp.Status)
	nearest := decodeData[PointsResult](t, resp)
	require.Equal(t, []Point{{1, 1}, {2, 2}}, nearest.Points)

	_, resp = post(t, s, APIRequest{Command: CommandNearest, Point: &Point{0, 0}})
	require.Equal(t, 0, decodeData[PointsResult](t, resp).Count, "k defaults to zero")
}

func TestService_DuplicateAndMissing(t *testing.T) {
	s, _ := newTestService(t, Options{})
	add(t, s, Point{4, 4})

	_, resp := post(t, s, APIRequest{Command: CommandAdd, Point: &Point{4, 4}})
	require.Equal(t, StatusOK, resp.Status)
	require.False(t, decodeData[MutationResult](t, resp).Changed)
	require.Contains(t, resp.Message, "already indexed")

	_, resp = post(t, s, APIRequest{Command: CommandDelete, Point: &Point{5, 5}})
	require.Equal(t, StatusNotFound, resp.Status)

	_, resp = post(t, s, APIRequest{Command: CommandDelete, Point: &Point{4, 4}})
	require.Equal(t, StatusOK, resp.Status)
	result := decodeData[MutationResult](t, resp)
	require.True(t, result.Changed)
	require.Equal(t, uint64(2), result.Version)
}

func TestService_StatsAndDump(t *testing.T) {
	s, _ := newTestService(t, Options{})

	_, resp := post(t, s, APIRequest{Command: CommandStats})
	stats := decodeData[StatsResult](t, resp)
	require.Zero(t, stats.Size)
	require.Nil(t, stats.Bounds, "an empty index has no bounds")

	add(t, s, Point{1, 1}, Point{2, 3})
	_, resp = post(t, s, APIRequest{Command: CommandStats})
	stats = decodeData[StatsResult](t, resp)
	require.Equal(t, 2, stats.Size)
	require.Equal(t, 1, stats.Height)
	require.Equal(t, &Rect{Min: Point{1, 1}, Max: Point{2, 3}}, stats.Bounds)

	_, resp = post(t, s, APIRequest{Command: CommandDump})
	dump := decodeData[DumpResult](t, resp)
	require.Contains(t, dump.Tree, "Root leaf #0")
	require.NotContains(t, dump.Tree, "\x1b[", "dumps are plain text")
}

func TestService_BadRequests(t *testing.T) {
	s, _ := newTestService(t, Options{})

	cases := map[string]string{
		"malformed":      `{"command":`,
		"unknown field":  `{"command":"ADD","pt":{"x":1,"y":2}}`,
		"unknown cmd":    `{"command":"FLY"}`,
		"add no point":   `{"command":"ADD"}`,
		"search no rect": `{"command":"SEARCH"}`,
		"knn no point":   `{"command":"NEAREST","k":3}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, resp := postRaw(t, s, body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, StatusError, resp.Status)
		})
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/spatial", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestService_ClosedIndex(t *testing.T) {
	s, index := newTestService(t, Options{})
	require.NoError(t, index.Close())

	rec, resp := post(t, s, APIRequest{Command: CommandAdd, Point: &Point{1, 1}})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, StatusError, resp.Status)
}

func TestService_RequestIDs(t *testing.T) {
	s, _ := newTestService(t, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err, "a fresh request gets a generated ID")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "trace-me-123")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, "trace-me-123", rec.Header().Get(RequestIDHeader))
}

func TestService_RateLimit(t *testing.T) {
	s, _ := newTestService(t, Options{RequestsPerSecond: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code, "health checks bypass the limiter")
}

func TestService_StatusAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("spatial_points 0\n"))
	})
	s, _ := newTestService(t, Options{MetricsHandler: metrics})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp APIResponse
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&resp))
	require.Contains(t, resp.Message, "spatial index up for")

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, "spatial_points 0\n", rec.Body.String())
}
