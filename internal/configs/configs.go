/*
Package configs is responsible for loading and parsing the application's configuration settings.

Configuration is read from environment variables (with an optional .env file in
development), parsed into the AppConfig struct via struct tags, and validated
before the server starts.
*/
package configs

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"slidesync/internal/pkg/logx"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// Environment selects development or production behavior (log format,
	// permissive CORS and WebSocket origins).
	Environment string `env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development production"`

	// Port is the TCP port the HTTP/WebSocket server listens on.
	Port int `env:"PORT" envDefault:"8080" validate:"min=1024,max=65535"`

	// AllowedOrigins lists the origins accepted for CORS and WebSocket
	// upgrades outside development.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// SweepInterval is the period of the idle-project sweep.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"5m" validate:"min=1s"`

	// IdleThreshold is how long an empty project survives before the sweep
	// removes it.
	IdleThreshold time.Duration `env:"IDLE_THRESHOLD" envDefault:"5m" validate:"min=1s"`
}

// LoadConfig reads and validates the application configuration from the
// environment. A missing .env file is not an error.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		logx.Logger().Debug().Err(err).Msg(".env file not found")
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration from environment: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
