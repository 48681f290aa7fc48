// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string
	// UserID identifies the workspace member whose personal scope
	// `tasklens scan` operates on by default.
	UserID string

	// Database
	DatabaseURL string
	SQLitePath  string

	// Redis (optional, enables cross-process scope locks)
	RedisURL string

	// RabbitMQ (optional, enables the background sync worker)
	RabbitMQURL string

	// Slack
	SlackToken   string
	SlackBaseURL string

	// Oracle (classification backend)
	OracleAPIKey  string
	OracleBaseURL string
	OracleModel   string
	OracleTimeout time.Duration

	// Extraction
	ChannelConfidenceThreshold float64
	DMConfidenceThreshold      float64
	ChannelBatchLimit          int
	DMBatchLimit               int
	LookbackWindow             time.Duration

	// Merge
	SimilarityThreshold float64

	// Rendering
	CompletedWindow int

	// Scan
	ScanWorkers int

	// Canvas
	CanvasTimeout time.Duration
	AutoSync      bool

	// Worker
	WorkerHealthAddr string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		UserID:   getEnv("TASKLENS_USER_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("TASKLENS_SQLITE_PATH", ""),

		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		SlackToken:   getEnv("SLACK_BOT_TOKEN", ""),
		SlackBaseURL: getEnv("SLACK_BASE_URL", "https://slack.com/api"),

		OracleAPIKey:  getEnv("ORACLE_API_KEY", ""),
		OracleBaseURL: getEnv("ORACLE_BASE_URL", ""),
		OracleModel:   getEnv("ORACLE_MODEL", "gpt-4o-mini"),
		OracleTimeout: getDurationEnv("ORACLE_TIMEOUT", 30*time.Second),

		ChannelConfidenceThreshold: getFloatEnv("CHANNEL_CONFIDENCE_THRESHOLD", 0.60),
		DMConfidenceThreshold:      getFloatEnv("DM_CONFIDENCE_THRESHOLD", 0.70),
		ChannelBatchLimit:          getIntEnv("CHANNEL_BATCH_LIMIT", 50),
		DMBatchLimit:               getIntEnv("DM_BATCH_LIMIT", 30),
		LookbackWindow:             getDurationEnv("LOOKBACK_WINDOW", 7*24*time.Hour),

		SimilarityThreshold: getFloatEnv("SIMILARITY_THRESHOLD", 0.80),

		CompletedWindow: getIntEnv("COMPLETED_WINDOW", 10),

		ScanWorkers: getIntEnv("SCAN_WORKERS", 4),

		CanvasTimeout: getDurationEnv("CANVAS_TIMEOUT", 15*time.Second),
		AutoSync:      getBoolEnv("AUTO_SYNC", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer environment variable or a default.
func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getFloatEnv returns a float environment variable or a default.
func getFloatEnv(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getDurationEnv returns a duration environment variable or a default.
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getBoolEnv returns a boolean environment variable or a default.
func getBoolEnv(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaultValue
	}
}
