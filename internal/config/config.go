// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port     string
	Env      string // "development", "staging", "production"
	LogLevel string

	// Risk thresholds, ascending. A score above High rejects outright, above
	// Medium requires manual approval.
	LowRiskThreshold    float64
	MediumRiskThreshold float64
	HighRiskThreshold   float64

	// Spending limits
	DailyTransactionLimit   float64
	SingleTransactionLimit  float64
	OfflineTransactionLimit float64

	// How long a sealed offline envelope stays replayable
	OfflineCacheDuration time.Duration

	// BehavioralAnalysis toggles the full profile-based scoring path.
	// When off, the engine falls back to lightweight heuristics.
	BehavioralAnalysis bool

	// MaxFailedAttempts is how many failed authentication attempts the auth
	// collaborator tolerates before locking a session. The core only carries
	// the value.
	MaxFailedAttempts int

	// Secret used to seal offline envelopes
	OfflineSecret string

	// Security
	RateLimitRPS int

	// Observability
	OTLPEndpoint string // OpenTelemetry collector (optional)
}

const (
	DefaultPort                = "8080"
	DefaultEnv                 = "development"
	DefaultLogLevel            = "info"
	DefaultLowRiskThreshold    = 0.3
	DefaultMediumRiskThreshold = 0.6
	DefaultHighRiskThreshold   = 0.8
	DefaultDailyLimit          = 10000.0
	DefaultSingleLimit         = 5000.0
	DefaultOfflineLimit        = 1000.0
	DefaultOfflineCacheHours   = 24
	DefaultMaxFailedAttempts   = 3
	DefaultRateLimit           = 100
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    getEnv("PORT", DefaultPort),
		Env:                     getEnv("ENV", DefaultEnv),
		LogLevel:                getEnv("LOG_LEVEL", DefaultLogLevel),
		LowRiskThreshold:        getEnvFloat("LOW_RISK_THRESHOLD", DefaultLowRiskThreshold),
		MediumRiskThreshold:     getEnvFloat("MEDIUM_RISK_THRESHOLD", DefaultMediumRiskThreshold),
		HighRiskThreshold:       getEnvFloat("HIGH_RISK_THRESHOLD", DefaultHighRiskThreshold),
		DailyTransactionLimit:   getEnvFloat("DAILY_TRANSACTION_LIMIT", DefaultDailyLimit),
		SingleTransactionLimit:  getEnvFloat("SINGLE_TRANSACTION_LIMIT", DefaultSingleLimit),
		OfflineTransactionLimit: getEnvFloat("OFFLINE_TRANSACTION_LIMIT", DefaultOfflineLimit),
		OfflineCacheDuration:    time.Duration(getEnvInt64("OFFLINE_CACHE_HOURS", DefaultOfflineCacheHours)) * time.Hour,
		BehavioralAnalysis:      getEnvBool("BEHAVIORAL_ANALYSIS", true),
		MaxFailedAttempts:       int(getEnvInt64("MAX_FAILED_ATTEMPTS", DefaultMaxFailedAttempts)),
		OfflineSecret:           getEnv("OFFLINE_SECRET", "safebank-offline-secret"),
		RateLimitRPS:            int(getEnvInt64("RATE_LIMIT_RPS", int64(DefaultRateLimit))),
		OTLPEndpoint:            os.Getenv("OTLP_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns the standard configuration without reading the environment.
func Default() *Config {
	return &Config{
		Port:                    DefaultPort,
		Env:                     DefaultEnv,
		LogLevel:                DefaultLogLevel,
		LowRiskThreshold:        DefaultLowRiskThreshold,
		MediumRiskThreshold:     DefaultMediumRiskThreshold,
		HighRiskThreshold:       DefaultHighRiskThreshold,
		DailyTransactionLimit:   DefaultDailyLimit,
		SingleTransactionLimit:  DefaultSingleLimit,
		OfflineTransactionLimit: DefaultOfflineLimit,
		OfflineCacheDuration:    DefaultOfflineCacheHours * time.Hour,
		BehavioralAnalysis:      true,
		MaxFailedAttempts:       DefaultMaxFailedAttempts,
		OfflineSecret:           "safebank-offline-secret",
		RateLimitRPS:            DefaultRateLimit,
	}
}

// Minimal returns a conservative profile for constrained deployments. It
// tightens every limit and disables behavioral analysis.
func Minimal() *Config {
	cfg := Default()
	cfg.LowRiskThreshold = 0.4
	cfg.MediumRiskThreshold = 0.7
	cfg.HighRiskThreshold = 0.9
	cfg.DailyTransactionLimit = 5000
	cfg.SingleTransactionLimit = 2000
	cfg.OfflineTransactionLimit = 500
	cfg.OfflineCacheDuration = 12 * time.Hour
	cfg.BehavioralAnalysis = false
	return cfg
}

// Validate checks threshold ordering and limit consistency
func (c *Config) Validate() error {
	for name, v := range map[string]float64{
		"LOW_RISK_THRESHOLD":    c.LowRiskThreshold,
		"MEDIUM_RISK_THRESHOLD": c.MediumRiskThreshold,
		"HIGH_RISK_THRESHOLD":   c.HighRiskThreshold,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
		}
	}
	if !(c.LowRiskThreshold < c.MediumRiskThreshold && c.MediumRiskThreshold < c.HighRiskThreshold) {
		return fmt.Errorf("risk thresholds must be strictly ascending: low %v, medium %v, high %v",
			c.LowRiskThreshold, c.MediumRiskThreshold, c.HighRiskThreshold)
	}
	for name, v := range map[string]float64{
		"DAILY_TRANSACTION_LIMIT":   c.DailyTransactionLimit,
		"SINGLE_TRANSACTION_LIMIT":  c.SingleTransactionLimit,
		"OFFLINE_TRANSACTION_LIMIT": c.OfflineTransactionLimit,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, v)
		}
	}
	if c.DailyTransactionLimit < c.SingleTransactionLimit {
		return fmt.Errorf("DAILY_TRANSACTION_LIMIT (%v) must be at least SINGLE_TRANSACTION_LIMIT (%v)",
			c.DailyTransactionLimit, c.SingleTransactionLimit)
	}
	if c.OfflineCacheDuration <= 0 {
		return fmt.Errorf("OFFLINE_CACHE_HOURS must be positive")
	}
	if c.MaxFailedAttempts <= 0 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must be positive, got %d", c.MaxFailedAttempts)
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
