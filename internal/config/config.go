// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Database
	DatabaseURL string // PostgreSQL connection string (optional, uses in-memory if not set)

	// Scoring settings
	Countries     []string      // ISO country codes scored by the scheduler
	ScoreInterval time.Duration // how often the scheduler rescores every country

	// Signal windows (days)
	NewsLookbackDays       int
	ConflictLookbackDays   int
	GovernmentLookbackDays int

	// Sentiment service endpoint (optional, keyword fallback if not set)
	SentimentAPIURL string

	// Observability
	OTLPEndpoint string // OTLP gRPC endpoint for traces (optional, tracing off if not set)
}

const (
	DefaultPort          = "8080"
	DefaultEnv           = "development"
	DefaultLogLevel      = "info"
	DefaultScoreInterval = time.Hour
)

// DefaultCountries is the demo watchlist used when COUNTRIES is unset.
var DefaultCountries = []string{"UA", "SY", "PK", "NG", "CO"}

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnv("PORT", DefaultPort),
		Env:                    getEnv("ENV", DefaultEnv),
		LogLevel:               getEnv("LOG_LEVEL", DefaultLogLevel),
		DatabaseURL:            os.Getenv("DATABASE_URL"), // Optional, uses in-memory if not set
		Countries:              getEnvList("COUNTRIES", DefaultCountries),
		ScoreInterval:          getEnvDuration("SCORE_INTERVAL", DefaultScoreInterval),
		NewsLookbackDays:       int(getEnvInt64("NEWS_LOOKBACK_DAYS", 7)),
		ConflictLookbackDays:   int(getEnvInt64("CONFLICT_LOOKBACK_DAYS", 30)),
		GovernmentLookbackDays: int(getEnvInt64("GOVERNMENT_LOOKBACK_DAYS", 30)),
		SentimentAPIURL:        os.Getenv("SENTIMENT_API_URL"),
		OTLPEndpoint:           os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if len(c.Countries) == 0 {
		return fmt.Errorf("COUNTRIES must list at least one country code")
	}
	for _, code := range c.Countries {
		if len(code) < 2 || len(code) > 3 {
			return fmt.Errorf("COUNTRIES entries must be 2- or 3-letter ISO codes, got %q", code)
		}
	}

	if c.ScoreInterval < time.Minute {
		return fmt.Errorf("SCORE_INTERVAL must be at least 1m, got %s", c.ScoreInterval)
	}

	if c.NewsLookbackDays <= 0 || c.ConflictLookbackDays <= 0 || c.GovernmentLookbackDays <= 0 {
		return fmt.Errorf("signal lookback windows must be positive")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList parses a comma-separated env var, trimming whitespace and
// uppercasing entries.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
