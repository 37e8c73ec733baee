package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNew_DisabledIsNoop(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: false})
	require.NoError(t, err)
	require.Nil(t, tel.MeterProvider)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Meter)
	require.NotNil(t, tel.MetricsHandler)
	require.NoError(t, shutdown(context.Background()))
}

func TestNew_RequiresServiceName(t *testing.T) {
	_, _, err := New(Config{Enabled: true})
	require.Error(t, err)
}

func TestNew_ExportsCountersThroughHandler(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: true, ServiceName: "spatial-test"})
	require.NoError(t, err)
	defer func() { require.NoError(t, shutdown(context.Background())) }()

	counter, err := tel.Meter.Int64Counter("spatial_test_inserts")
	require.NoError(t, err)
	counter.Add(context.Background(), 3)

	require.Contains(t, scrape(t, tel.MetricsHandler), "spatial_test_inserts")

	_, span := tel.Tracer.Start(context.Background(), "probe")
	span.End()
}

func TestNew_InstancesDoNotShareRegistries(t *testing.T) {
	a, shutdownA, err := New(Config{Enabled: true, ServiceName: "a"})
	require.NoError(t, err)
	defer shutdownA(context.Background())
	b, shutdownB, err := New(Config{Enabled: true, ServiceName: "b"})
	require.NoError(t, err)
	defer shutdownB(context.Background())

	counter, err := a.Meter.Int64Counter("only_in_a")
	require.NoError(t, err)
	counter.Add(context.Background(), 1)

	require.Contains(t, scrape(t, a.MetricsHandler), "only_in_a")
	require.NotContains(t, scrape(t, b.MetricsHandler), "only_in_a")
}
