// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds runtime settings.
type Config struct {
	Port     string
	DBPath   string
	WebDir   string // empty serves the embedded client
	LogLevel string

	CleanupInterval time.Duration
	SessionMaxAge   time.Duration
	OpponentDelay   time.Duration
	// Seed fixes match randomness; zero picks a random seed per match.
	Seed uint64
}

// Load reads the environment, falling back to defaults for unset values.
func Load() (Config, error) {
	cfg := Config{
		Port:            env("PORT", "8080"),
		DBPath:          env("DB_PATH", ":memory:"),
		WebDir:          os.Getenv("WEB_DIR"),
		LogLevel:        env("LOG_LEVEL", "info"),
		CleanupInterval: time.Minute,
		SessionMaxAge:   time.Hour,
		OpponentDelay:   time.Second,
	}
	var err error
	if cfg.CleanupInterval, err = duration("CLEANUP_INTERVAL", cfg.CleanupInterval); err != nil {
		return cfg, err
	}
	if cfg.SessionMaxAge, err = duration("SESSION_MAX_AGE", cfg.SessionMaxAge); err != nil {
		return cfg, err
	}
	if cfg.OpponentDelay, err = duration("OPPONENT_DELAY", cfg.OpponentDelay); err != nil {
		return cfg, err
	}
	if v := os.Getenv("SEED"); v != "" {
		if cfg.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return cfg, fmt.Errorf("SEED: %w", err)
		}
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return cfg, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return cfg, fmt.Errorf("PORT: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return ":" + c.Port
}

// NewLogger builds a production logger at the configured level.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return def, fmt.Errorf("%s: must be positive, got %s", key, v)
	}
	return d, nil
}
