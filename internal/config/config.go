// Package config loads server settings from the environment, with an optional
// .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Addr          string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	RedisURL      string        `env:"REDIS_URL"`
	AuthSecret    string        `env:"AUTH_SECRET" envDefault:"dev-secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	AutoMoveDelay time.Duration `env:"AUTO_MOVE_DELAY" envDefault:"750ms"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
