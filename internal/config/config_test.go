package config_test

import (
	"testing"

	"kartbot/internal/config"
)

func TestLoadDefaults(t *testing.T) {

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/kartbot")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxConcurrentTrials != 2 {
		t.Errorf("expected default 2 concurrent trials, got %d", cfg.MaxConcurrentTrials)
	}
	if cfg.ExpiredTrialRetentionDays != 3 {
		t.Errorf("expected default retention 3 days, got %d", cfg.ExpiredTrialRetentionDays)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: %d/%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if cfg.Debug {
		t.Errorf("debug should default to false")
	}
}

func TestLoadRequiresToken(t *testing.T) {

	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/kartbot")

	if _, err := config.Load(); err == nil {
		t.Errorf("expected error for missing BOT_TOKEN")
	}
}

func TestLoadOverrides(t *testing.T) {

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/kartbot")
	t.Setenv("MAX_CONCURRENT_TRIALS", "5")
	t.Setenv("DEBUG", "true")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.MaxConcurrentTrials != 5 {
		t.Errorf("expected 5 concurrent trials, got %d", cfg.MaxConcurrentTrials)
	}
	if !cfg.Debug {
		t.Errorf("expected debug enabled")
	}
}

func TestLoadRejectsBadNumber(t *testing.T) {

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("DATABASE_URL", "postgres://localhost/kartbot")
	t.Setenv("DB_MAX_CONNS", "lots")

	if _, err := config.Load(); err == nil {
		t.Errorf("expected error for non-numeric DB_MAX_CONNS")
	}
}
