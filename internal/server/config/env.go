package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	envPrefix  = "POSTBOX"
	dotEnvFile = ".env"
)

// envConfig covers the storage location only: POSTBOX_DATA_DIR and
// POSTBOX_DATABASE_DSN.
type envConfig struct {
	DataDir     string `envconfig:"DATA_DIR"`
	DatabaseDSN string `envconfig:"DATABASE_DSN"`
}

// parseEnv loads envFile if it exists (without overriding variables already
// set) and overlays the POSTBOX_ variables onto cfg.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var e envConfig
	if err := envconfig.Process(envPrefix, &e); err != nil {
		return fmt.Errorf("environment: %w", err)
	}

	setString(&cfg.DataDir, e.DataDir)
	setString(&cfg.DatabaseDSN, e.DatabaseDSN)
	return nil
}
