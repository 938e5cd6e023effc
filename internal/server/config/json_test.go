package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	full := writeTempJSON(t, dir, "full.json", map[string]any{
		"listen_addr":         "0.0.0.0:9000",
		"data_dir":            "/data",
		"storage_driver":      "postgres",
		"database_dsn":        "postgres://db/postbox",
		"receive_buffer_size": 16384,
		"max_in_flight":       32,
		"handler_timeout":     "3s",
		"metrics_addr":        ":9100",
		"log_format":          "console",
		"log_level":           "debug",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		parseJson(cfg, []string{"-config", full})

		assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
		assert.Equal(t, "/data", cfg.DataDir)
		assert.Equal(t, "postgres", cfg.StorageDriver)
		assert.Equal(t, "postgres://db/postbox", cfg.DatabaseDSN)
		assert.Equal(t, 16384, cfg.ReceiveBufferSize)
		assert.Equal(t, 32, cfg.MaxInFlight)
		assert.Equal(t, 3*time.Second, cfg.HandlerTimeout)
		assert.Equal(t, ":9100", cfg.MetricsAddr)
		assert.Equal(t, "console", cfg.LogFormat)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"listen_addr": ":1"})

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg, []string{"-c", partial})

		assert.Equal(t, ":1", cfg.ListenAddr)
		assert.Equal(t, "server_data", cfg.DataDir)
		assert.Equal(t, 10*time.Second, cfg.HandlerTimeout)
	})

	t.Run("no config flag leaves config untouched", func(t *testing.T) {
		cfg := &Config{ListenAddr: "defaults:1234"}
		parseJson(cfg, []string{"-a", ":1"})
		assert.Equal(t, "defaults:1234", cfg.ListenAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		require.Panics(t, func() { parseJson(&Config{}, []string{"-config", bad}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		require.Panics(t, func() { parseJson(&Config{}, []string{"-c", filepath.Join(dir, "nope.json")}) })
	})
}
