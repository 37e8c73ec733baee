package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// --- Test Helpers ---

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spatial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// --- Test Cases ---

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "127.0.0.1:8090", cfg.Server.HTTPAddr)
	require.Equal(t, "127.0.0.1:8091", cfg.Server.GRPCAddr)
	require.True(t, cfg.Cache.Enabled)
	require.Zero(t, cfg.RateLimit.RequestsPerSecond)
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  format: console
server:
  http_addr: "0.0.0.0:9000"
  shutdown_timeout: 12s
rate_limit:
  requests_per_second: 50
  burst: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "debug", cfg.Logger.Level)
	require.Equal(t, "console", cfg.Logger.Format)
	require.Equal(t, "stdout", cfg.Logger.OutputFile, "untouched keys keep their defaults")
	require.Equal(t, "0.0.0.0:9000", cfg.Server.HTTPAddr)
	require.Equal(t, "127.0.0.1:8091", cfg.Server.GRPCAddr)
	require.Equal(t, 12*time.Second, cfg.Server.ShutdownTimeout)
	require.Equal(t, 50.0, cfg.RateLimit.RequestsPerSecond)
	require.Equal(t, 10, cfg.RateLimit.Burst)
	require.Equal(t, int64(10000), cfg.Cache.NumCounters)
}

func TestLoad_EmptyFileGivesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoad_TLSPathsInline(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  tls:
    enabled: true
    ca_file: /certs/ca.crt
    cert_file: /certs/server.crt
    key_file: /certs/server.key
`))
	require.NoError(t, err)
	require.True(t, cfg.Server.TLS.Enabled)
	require.Equal(t, "/certs/ca.crt", cfg.Server.TLS.CAFile)
	require.Equal(t, "/certs/server.key", cfg.Server.TLS.KeyFile)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read config")

	_, err = Load(writeConfig(t, "server:\n  htp_addr: x\n"))
	require.ErrorContains(t, err, "failed to parse config", "unknown keys are rejected")

	_, err = Load(writeConfig(t, "server:\n  http_addr: nonsense\n"))
	require.ErrorContains(t, err, "server.http_addr")
}

func TestValidate_RejectsBadSettings(t *testing.T) {
	cases := map[string]func(c *Config){
		"log level":        func(c *Config) { c.Logger.Level = "chatty" },
		"no listeners":     func(c *Config) { c.Server.HTTPAddr, c.Server.GRPCAddr = "", "" },
		"shutdown timeout": func(c *Config) { c.Server.ShutdownTimeout = 0 },
		"tls without keys": func(c *Config) { c.Server.TLS.Enabled = true },
		"cache size":       func(c *Config) { c.Cache.MaxCost = -1 },
		"negative rate":    func(c *Config) { c.RateLimit.RequestsPerSecond = -1 },
		"rate no burst":    func(c *Config) { c.RateLimit.RequestsPerSecond = 5 },
		"telemetry name":   func(c *Config) { c.Telemetry.Enabled, c.Telemetry.ServiceName = true, "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Cache = CacheConfig{Enabled: false}
	require.NoError(t, cfg.Validate(), "sizes are ignored when the cache is off")
}
