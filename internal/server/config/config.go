// Package config handles configuration for the postbox server: defaults, a
// JSON file overlay, environment variables and command-line flags, applied in
// that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/postbox/internal/dbx"
	"github.com/dmitrijs2005/postbox/internal/logging"
)

// Config holds runtime settings for the postbox server.
//
// Fields:
//   - ListenAddr: UDP bind address.
//   - DataDir: storage root; holds the SQLite database file.
//   - StorageDriver: "sqlite" or "postgres".
//   - DatabaseDSN: driver DSN; empty selects <DataDir>/postbox.db for SQLite.
//   - ReceiveBufferSize: largest datagram read, longer ones are truncated.
//   - MaxInFlight: bound on concurrent handlers, 0 for unbounded.
//   - HandlerTimeout: per-datagram deadline, 0 to disable.
//   - MetricsAddr: admin HTTP address for /metrics and /healthz, empty to disable.
//   - LogFormat / LogLevel: logger selection.
type Config struct {
	ListenAddr        string
	DataDir           string
	StorageDriver     string
	DatabaseDSN       string
	ReceiveBufferSize int
	MaxInFlight       int
	HandlerTimeout    time.Duration
	MetricsAddr       string
	LogFormat         string
	LogLevel          string
}

const sqliteFileName = "postbox.db"

// LoadDefaults populates Config with the stock settings.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":9999"
	c.DataDir = "server_data"
	c.StorageDriver = dbx.DriverSQLite
	c.DatabaseDSN = ""
	c.ReceiveBufferSize = 8192
	c.MaxInFlight = 0
	c.HandlerTimeout = 10 * time.Second
	c.MetricsAddr = ""
	c.LogFormat = logging.FormatJSON
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, then an optional JSON file, then
// the environment and finally command-line flags. Malformed JSON or flags
// panic.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], dotEnvFile)
}

func load(args []string, envFile string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	if err := parseEnv(cfg, envFile); err != nil {
		return nil, err
	}
	parseFlags(cfg, args)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case dbx.DriverSQLite:
	case dbx.DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("storage driver %q requires a database DSN", c.StorageDriver)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	switch c.LogFormat {
	case logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("listen address is empty")
	}
	if c.ReceiveBufferSize <= 0 {
		return fmt.Errorf("receive buffer size must be positive, got %d", c.ReceiveBufferSize)
	}
	if c.MaxInFlight < 0 {
		return fmt.Errorf("max in-flight must not be negative, got %d", c.MaxInFlight)
	}
	if c.HandlerTimeout < 0 {
		return fmt.Errorf("handler timeout must not be negative, got %s", c.HandlerTimeout)
	}
	return nil
}

// DSN returns DatabaseDSN or, for SQLite, the database file under DataDir.
func (c *Config) DSN() string {
	if c.DatabaseDSN != "" || c.StorageDriver != dbx.DriverSQLite {
		return c.DatabaseDSN
	}
	path := filepath.ToSlash(filepath.Join(c.DataDir, sqliteFileName))
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
