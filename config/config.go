// Package config loads the YAML configuration of the spatial index server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sushant-115/gojodb-spatial/config/certs"
	"github.com/sushant-115/gojodb-spatial/pkg/logger"
	"github.com/sushant-115/gojodb-spatial/pkg/telemetry"
)

// Config is the root of the server configuration file.
type Config struct {
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
	Server    ServerConfig     `yaml:"server"`
	Cache     CacheConfig      `yaml:"cache"`
	RateLimit RateLimitConfig  `yaml:"rate_limit"`
}

// ServerConfig holds listener settings.
type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	GRPCAddr        string        `yaml:"grpc_addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	TLS             TLSConfig     `yaml:"tls"`
}

// TLSConfig enables mutual TLS on the gRPC listener.
type TLSConfig struct {
	Enabled     bool `yaml:"enabled"`
	certs.Paths `yaml:",inline"`
}

// CacheConfig sizes the query-result cache of the index manager.
type CacheConfig struct {
	Enabled     bool  `yaml:"enabled"`
	NumCounters int64 `yaml:"num_counters"`
	MaxCost     int64 `yaml:"max_cost"`
}

// RateLimitConfig configures the HTTP token bucket. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Logger: logger.Config{
			Level:      "info",
			Format:     "json",
			OutputFile: "stdout",
			Service:    logger.DefaultService,
		},
		Telemetry: telemetry.Config{
			Enabled:          false,
			ServiceName:      "gojodb-spatial",
			TraceSampleRatio: 1.0,
		},
		Server: ServerConfig{
			HTTPAddr:        "127.0.0.1:8090",
			GRPCAddr:        "127.0.0.1:8091",
			ShutdownTimeout: 5 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:     true,
			NumCounters: 10000,
			MaxCost:     1000,
		},
	}
}

// Load reads path and overlays it on Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if _, err := logger.ParseLevel(c.Logger.Level); err != nil {
		return err
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("telemetry.service_name is required when telemetry is enabled")
	}
	for name, addr := range map[string]string{"server.http_addr": c.Server.HTTPAddr, "server.grpc_addr": c.Server.GRPCAddr} {
		if addr == "" {
			continue
		}
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return errors.New("at least one of server.http_addr and server.grpc_addr must be set")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}
	if tls := c.Server.TLS; tls.Enabled && (tls.CAFile == "" || tls.CertFile == "" || tls.KeyFile == "") {
		return errors.New("server.tls needs ca_file, cert_file and key_file when enabled")
	}
	if c.Cache.Enabled && (c.Cache.NumCounters <= 0 || c.Cache.MaxCost <= 0) {
		return fmt.Errorf("cache sizes must be positive, got num_counters=%d max_cost=%d", c.Cache.NumCounters, c.Cache.MaxCost)
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		return errors.New("rate_limit.burst must be at least 1 when a rate is set")
	}
	return nil
}
