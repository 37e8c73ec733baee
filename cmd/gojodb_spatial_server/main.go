package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	spatialgrpc "github.com/sushant-115/gojodb-spatial/api/spatial_grpc_service"
	spatialhttp "github.com/sushant-115/gojodb-spatial/api/spatial_http_service"
	"github.com/sushant-115/gojodb-spatial/config"
	"github.com/sushant-115/gojodb-spatial/config/certs"
	"github.com/sushant-115/gojodb-spatial/core/indexmanager"
	"github.com/sushant-115/gojodb-spatial/pkg/logger"
	"github.com/sushant-115/gojodb-spatial/pkg/telemetry"
)

var (
	configPath = flag.String("config", "", "Path to a YAML config file; defaults are used when empty")
	httpAddr   = flag.String("http_addr", "", "HTTP bind address (overrides config)")
	grpcAddr   = flag.String("grpc_addr", "", "gRPC bind address (overrides config)")
	logLevel   = flag.String("log_level", "", "Log level (overrides config)")
	genCerts   = flag.String("gen_certs", "", "Write a fresh CA, server and client certificate into this directory and exit")
)

var zlogger *zap.Logger

func main() {
	flag.Parse()

	if *genCerts != "" {
		if err := certs.Generate(*genCerts); err != nil {
			log.Fatalf("CRITICAL: Failed to generate certificates: %v", err)
		}
		log.Printf("Certificates written to %s", *genCerts)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("CRITICAL: %v", err)
	}

	zlogger, err = logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("CRITICAL: Can't initialize zap logger: %v", err)
	}
	defer func() { _ = zlogger.Sync() }()

	zlogger.Info("Starting GojoDB spatial index server",
		zap.String("httpAddr", cfg.Server.HTTPAddr),
		zap.String("grpcAddr", cfg.Server.GRPCAddr),
		zap.Bool("tls", cfg.Server.TLS.Enabled),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
		zap.Bool("cache", cfg.Cache.Enabled),
	)

	tel, shutdownTelemetry, err := telemetry.New(cfg.Telemetry)
	if err != nil {
		zlogger.Fatal("CRITICAL: Failed to initialize telemetry", zap.Error(err))
	}

	index, err := indexmanager.NewSpatialIndexManager(indexmanager.Options{
		Logger:           zlogger,
		Meter:            tel.Meter,
		Tracer:           tel.Tracer,
		CacheEnabled:     cfg.Cache.Enabled,
		CacheNumCounters: cfg.Cache.NumCounters,
		CacheMaxCost:     cfg.Cache.MaxCost,
	})
	if err != nil {
		zlogger.Fatal("CRITICAL: Failed to initialize spatial index", zap.Error(err))
	}

	var httpServer *http.Server
	var grpcServer *grpc.Server
	var wg sync.WaitGroup

	if cfg.Server.HTTPAddr != "" {
		svc := spatialhttp.New(index, zlogger, spatialhttp.Options{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MetricsHandler:    tel.MetricsHandler,
		})
		httpServer = &http.Server{Addr: cfg.Server.HTTPAddr, Handler: svc.Handler()}
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlogger.Info("HTTP server listening", zap.String("address", cfg.Server.HTTPAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zlogger.Fatal("CRITICAL: HTTP server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Server.GRPCAddr != "" {
		grpcServer, err = newGRPCServer(cfg, index, tel)
		if err != nil {
			zlogger.Fatal("CRITICAL: Failed to initialize gRPC server", zap.Error(err))
		}
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			zlogger.Fatal("CRITICAL: Failed to listen for gRPC", zap.String("address", cfg.Server.GRPCAddr), zap.Error(err))
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			zlogger.Info("gRPC server listening", zap.String("address", cfg.Server.GRPCAddr))
			if err := grpcServer.Serve(lis); err != nil {
				zlogger.Error("gRPC server stopped", zap.Error(err))
			}
		}()
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	zlogger.Info("Shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			zlogger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}
	if grpcServer != nil {
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-ctx.Done():
			grpcServer.Stop()
		}
	}
	wg.Wait()

	if err := index.Close(); err != nil {
		zlogger.Error("Failed to close spatial index", zap.Error(err))
	}
	if err := shutdownTelemetry(context.Background()); err != nil {
		zlogger.Error("Failed to shut down telemetry", zap.Error(err))
	}
	zlogger.Info("GojoDB spatial index server shut down gracefully.")
}

// loadConfig reads -config (or the defaults) and applies flag overrides.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return cfg, err
		}
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}
	if *grpcAddr != "" {
		cfg.Server.GRPCAddr = *grpcAddr
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}
	return cfg, cfg.Validate()
}

func newGRPCServer(cfg config.Config, index indexmanager.IndexManager, tel *telemetry.Telemetry) (*grpc.Server, error) {
	srv, err := spatialgrpc.NewServer(index, zlogger, tel.Meter)
	if err != nil {
		return nil, err
	}
	var opts []grpc.ServerOption
	if cfg.Server.TLS.Enabled {
		tlsConfig, err := certs.LoadServerTLSConfig(cfg.Server.TLS.Paths)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}
	return srv.NewGRPCServer(opts...), nil
}
