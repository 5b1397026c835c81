package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	AppEnv       string // "development" or "production"
	LogLevel     string

	SessionSecret        string
	SessionTTL           time.Duration // zero means sessions never expire
	SessionPruneSchedule string        // cron spec for the expired-session pruner
	BcryptCost           int

	PredictorURL     string
	PredictorTimeout time.Duration

	CORSAllowedOrigins []string
	StatsInterval      time.Duration
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	predictorTimeout, err := time.ParseDuration(getEnv("PREDICTOR_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTOR_TIMEOUT: %w", err)
	}
	statsInterval, err := time.ParseDuration(getEnv("STATS_INTERVAL", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: %w", err)
	}
	cost, err := strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost)))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	cfg := &Config{
		ServerPort:           port,
		DatabasePath:         getEnv("DATABASE_PATH", "./homevalue.db"),
		AppEnv:               getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionTTL:           sessionTTL,
		SessionPruneSchedule: getEnv("SESSION_PRUNE_SCHEDULE", "@hourly"),
		BcryptCost:           cost,
		PredictorURL:         strings.TrimRight(getEnv("PREDICTOR_URL", "http://localhost:5001"), "/"),
		PredictorTimeout:     predictorTimeout,
		CORSAllowedOrigins:   splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		StatsInterval:        statsInterval,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that cannot be defaulted safely.
func (c *Config) Validate() error {
	if c.IsProduction() && c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("SESSION_TTL must not be negative")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("STATS_INTERVAL must be positive")
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
