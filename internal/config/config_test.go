package config

import (
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/feverscan")
	t.Setenv("GENERATOR_BACKEND", "local")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.RetryAttempts != 3 || cfg.RateBudget != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RateWindow != time.Minute {
		t.Fatalf("default rate window should be 1m, got %v", cfg.RateWindow)
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GENERATOR_BACKEND", "local")
	if _, err := Load(); err == nil {
		t.Fatal("missing DATABASE_URL should fail validation")
	}
}

func TestLoadRequiresBackendKey(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/feverscan")
	t.Setenv("GENERATOR_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatal("gemini backend without key should fail validation")
	}
	t.Setenv("GEMINI_API_KEY", "k")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.APIKey() != "k" {
		t.Fatalf("APIKey should return the gemini key, got %q", cfg.APIKey())
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/feverscan")
	t.Setenv("GENERATOR_BACKEND", "mainframe")
	if _, err := Load(); err == nil {
		t.Fatal("unknown backend should fail validation")
	}
}
