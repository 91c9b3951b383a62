// Package config provides application configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"feverscan/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	DatabaseURL string

	// Generator selects the generative backend: "gemini", "openai", or
	// "local" for the deterministic fallback only.
	Generator      string
	GeminiAPIKey   string
	OpenAIAPIKey   string
	Model          string
	RequestTimeout time.Duration

	// Retry policy around the generative call.
	RetryAttempts  int
	RetryBaseDelay time.Duration

	// Advisory rate limit per session.
	RateWindow time.Duration
	RateBudget int

	HistoryLimit  int
	ReferenceCSV  string
	SessionCookie string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		Generator:      getEnv("GENERATOR_BACKEND", llm.BackendGemini),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		Model:          getEnv("GENERATOR_MODEL", ""),
		RequestTimeout: getEnvDuration("GENERATOR_TIMEOUT", 30*time.Second),

		RetryAttempts:  getEnvInt("RETRY_ATTEMPTS", 3),
		RetryBaseDelay: getEnvDuration("RETRY_BASE_DELAY", time.Second),

		RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),
		RateBudget: getEnvInt("RATE_BUDGET", 10),

		HistoryLimit:  getEnvInt("HISTORY_LIMIT", 10),
		ReferenceCSV:  getEnv("REFERENCE_CSV", "DATA DBD.csv"),
		SessionCookie: getEnv("SESSION_COOKIE", "feverscan_session"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	switch c.Generator {
	case llm.BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for the gemini backend")
		}
	case llm.BackendOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for the openai backend")
		}
	case llm.BackendLocal:
	default:
		return fmt.Errorf("unknown GENERATOR_BACKEND %q", c.Generator)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be >= 1")
	}
	if c.RateBudget < 1 {
		return fmt.Errorf("RATE_BUDGET must be >= 1")
	}
	return nil
}

// APIKey returns the key for the selected backend.
func (c *Config) APIKey() string {
	if c.Generator == llm.BackendOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
