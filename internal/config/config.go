// Package config loads canopyd's configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all canopyd configuration. Every variable is prefixed
// CANOPY_.
type Config struct {
	Addr             string        `env:"ADDR" envDefault:":8080"`
	Table            string        `env:"TABLE" envDefault:"canopy_site"`
	DynamoDBEndpoint string        `env:"DYNAMODB_ENDPOINT"` // local-stack override; empty in production
	JWTSecret        string        `env:"JWT_SECRET,required,notEmpty"`
	RedisAddr        string        `env:"REDIS_ADDR"` // empty disables audit publishing
	AuditChannel     string        `env:"AUDIT_CHANNEL" envDefault:"canopy.audit"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat        string        `env:"LOG_FORMAT" envDefault:"json"` // json or console
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "CANOPY_"}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}
