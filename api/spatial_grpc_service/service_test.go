package spatialgrpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/sushant-115/gojodb-spatial/config/certs"
	"github.com/sushant-115/gojodb-spatial/core/indexing/spatial"
	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
)

// --- Test Helpers ---

type testEnv struct {
	client *Client
	index  *indexmanager.SpatialIndexManager
}

func newIndex(t *testing.T) (*indexmanager.SpatialIndexManager, *zap.Logger) {
	t.Helper()
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	index, err := indexmanager.NewSpatialIndexManager(indexmanager.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index, logger
}

func startBufconn(t *testing.T) testEnv {
	t.Helper()
	index, logger := newIndex(t)
	srv, err := NewServer(index, logger, nil)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	g := srv.NewGRPCServer()
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	client, err := Dial("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return testEnv{client: client, index: index}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func pt(x, y float64) spatial.Point { return spatial.Point{X: x, Y: y} }

// --- Test Cases ---

func TestGRPC_RoundTrip(t *testing.T) {
	env := startBufconn(t)
	ctx := testContext(t)

	for _, p := range []spatial.Point{pt(1, 1), pt(2, 2), pt(8, 8), pt(9, 9), pt(1, 9), pt(9, 1)} {
		ok, err := env.client.Insert(ctx, p)
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := env.client.Insert(ctx, pt(1, 1))
	require.NoError(t, err)
	require.False(t, ok, "duplicate")

	found, err := env.client.Search(ctx, spatial.NewRect(pt(0, 0), pt(3, 3)))
	require.NoError(t, err)
	require.ElementsMatch(t, []spatial.Point{pt(1, 1), pt(2, 2)}, found)

	nearest, err := env.client.Nearest(ctx, pt(0, 0), 2)
	require.NoError(t, err)
	require.Equal(t, []spatial.Point{pt(1, 1), pt(2, 2)}, nearest)

	ok, err = env.client.Delete(ctx, pt(9, 9))
	require.NoError(t, err)
	require.True(t, ok)

	stats, err := env.client.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), stats.Size)
	require.False(t, stats.Empty)
	require.Equal(t, Point{X: 1, Y: 1}, stats.Min)
	require.Equal(t, Point{X: 9, Y: 9}, stats.Max)
	require.Equal(t, env.index.Version(), stats.Version)
}

func TestGRPC_EmptyIndexStats(t *testing.T) {
	env := startBufconn(t)
	stats, err := env.client.Stats(testContext(t))
	require.NoError(t, err)
	require.True(t, stats.Empty)
	require.Zero(t, stats.Height)
}

func TestGRPC_InvalidArguments(t *testing.T) {
	env := startBufconn(t)
	ctx := testContext(t)

	var reply MutationReply
	err := env.client.invoke(ctx, InsertMethod, &PointRequest{}, &reply)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	var points PointsReply
	err = env.client.invoke(ctx, SearchMethod, &SearchRequest{Min: &Point{}}, &points)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_ClosedIndexIsUnavailable(t *testing.T) {
	env := startBufconn(t)
	require.NoError(t, env.index.Close())

	_, err := env.client.Insert(testContext(t), pt(1, 1))
	require.Equal(t, codes.Unavailable, status.Code(err))
}

func TestGRPC_RequestIDHeader(t *testing.T) {
	env := startBufconn(t)
	ctx := metadata.AppendToOutgoingContext(testContext(t), requestIDMetadataKey, "abc-123")

	var header metadata.MD
	var reply StatsReply
	err := env.client.conn.Invoke(ctx, StatsMethod, &StatsRequest{}, &reply,
		grpc.CallContentSubtype(codecName), grpc.Header(&header))
	require.NoError(t, err)
	require.Equal(t, []string{"abc-123"}, header.Get(requestIDMetadataKey))
}

func TestGRPC_MutualTLS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, certs.Generate(dir))
	serverTLS, err := certs.LoadServerTLSConfig(certs.ServerPaths(dir))
	require.NoError(t, err)
	clientTLS, err := certs.LoadClientTLSConfig(certs.ClientPaths(dir), "localhost")
	require.NoError(t, err)

	index, logger := newIndex(t)
	srv, err := NewServer(index, logger, nil)
	require.NoError(t, err)
	g := srv.NewGRPCServer(grpc.Creds(credentials.NewTLS(serverTLS)))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = g.Serve(lis) }()
	t.Cleanup(g.Stop)

	client, err := Dial(lis.Addr().String(), grpc.WithTransportCredentials(credentials.NewTLS(clientTLS)))
	require.NoError(t, err)
	defer client.Close()

	ok, err := client.Insert(testContext(t), pt(3, 4))
	require.NoError(t, err)
	require.True(t, ok)

	// A client without a certificate is refused.
	bare, err := Dial(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer bare.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = bare.Stats(ctx)
	require.Error(t, err)
}
