package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/postbox/internal/flagx"
	"github.com/dmitrijs2005/postbox/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept "10s"
// style strings or integer nanoseconds.
type JsonConfig struct {
	ListenAddr        string         `json:"listen_addr"`
	DataDir           string         `json:"data_dir"`
	StorageDriver     string         `json:"storage_driver"`
	DatabaseDSN       string         `json:"database_dsn"`
	ReceiveBufferSize int            `json:"receive_buffer_size"`
	MaxInFlight       int            `json:"max_in_flight"`
	HandlerTimeout    timex.Duration `json:"handler_timeout"`
	MetricsAddr       string         `json:"metrics_addr"`
	LogFormat         string         `json:"log_format"`
	LogLevel          string         `json:"log_level"`
}

// parseJson overlays the file named by -c/-config, if any. Only keys present
// with non-zero values change cfg. Unreadable files or invalid JSON panic.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DataDir, c.DataDir)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.MetricsAddr, c.MetricsAddr)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.LogLevel, c.LogLevel)
	if c.ReceiveBufferSize != 0 {
		config.ReceiveBufferSize = c.ReceiveBufferSize
	}
	if c.MaxInFlight != 0 {
		config.MaxInFlight = c.MaxInFlight
	}
	if c.HandlerTimeout.Duration != 0 {
		config.HandlerTimeout = c.HandlerTimeout.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
