package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_WritesJSONWithServiceField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatial.log")
	log, err := New(Config{Level: "debug", Format: "json", OutputFile: path, Service: "spatial-test"})
	require.NoError(t, err)

	log.Debug("Spatial index: root split")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(raw))), &entry))
	require.Equal(t, "DEBUG", entry["level"])
	require.Equal(t, "spatial-test", entry["service"])
	require.Equal(t, "Spatial index: root split", entry["msg"])
}

func TestNew_DefaultsServiceAndLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spatial.log")
	log, err := New(Config{OutputFile: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("shown")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "hidden")
	require.Contains(t, string(raw), `"service":"`+DefaultService+`"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	require.Equal(t, zapcore.WarnLevel, lvl.Level())

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zapcore.InfoLevel, lvl.Level())
}
