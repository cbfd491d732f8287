// Package config loads runtime configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the bot needs to start
type Config struct {
	BotToken    string
	DatabaseURL string
	Debug       bool

	MaxConcurrentTrials       int
	ExpiredTrialRetentionDays int

	DBMaxConns int
	DBMinConns int
}

// Load reads the configuration from environment variables. BOT_TOKEN
// and DATABASE_URL are required, the rest have defaults
func Load() (Config, error) {

	cfg := Config{
		MaxConcurrentTrials:       2,
		ExpiredTrialRetentionDays: 3,
		DBMaxConns:                20,
		DBMinConns:                5,
	}

	cfg.BotToken = os.Getenv("BOT_TOKEN")
	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is not set")
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is not set")
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	var err error
	if cfg.MaxConcurrentTrials, err = intVar("MAX_CONCURRENT_TRIALS", cfg.MaxConcurrentTrials); err != nil {
		return Config{}, err
	}
	if cfg.ExpiredTrialRetentionDays, err = intVar("EXPIRED_TRIAL_RETENTION_DAYS", cfg.ExpiredTrialRetentionDays); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxConns, err = intVar("DB_MAX_CONNS", cfg.DBMaxConns); err != nil {
		return Config{}, err
	}
	if cfg.DBMinConns, err = intVar("DB_MIN_CONNS", cfg.DBMinConns); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func intVar(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s is not a number: %q", name, raw)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", name, value)
	}
	return value, nil
}
