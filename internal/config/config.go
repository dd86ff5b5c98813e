// Package config loads the service configuration from environment
// variables. Defaults are suitable for local development; Validate catches
// misconfiguration before anything starts.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port string

	// Logging
	LogLevel  string
	LogFormat string

	// Storage
	Backend      string
	SQLiteDBPath string

	// AMQP (optional; empty URL disables the broker)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Exchange rates
	RateFeedURL     string
	RateRefreshEach time.Duration

	// Google Sheets export
	GoogleSpreadsheetID string
	GoogleSheetName     string
	GoogleCredsFile     string
	GoogleCredsJSON     string

	// Outbox processor
	SyncBatchSize int
	SyncInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		Backend:      getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/vydaje.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "vydaje"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_transactions"),

		RateFeedURL:     getEnv("RATE_FEED_URL", ""),
		RateRefreshEach: getEnvDuration("RATE_REFRESH_INTERVAL", time.Hour),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "transactions"),
		GoogleCredsFile:     getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleCredsJSON:     getEnv("GOOGLE_CREDENTIALS_JSON", ""),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),
	}
}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.Backend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			problems = append(problems, "SQLITE_DB_PATH cannot be empty with the sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
				}
			}
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid data backend %q: must be memory or sqlite", c.Backend))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP_EXCHANGE cannot be empty when AMQP_URL is set")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP_QUEUE cannot be empty when AMQP_URL is set")
		}
	}

	if c.RateFeedURL != "" {
		if _, err := url.Parse(c.RateFeedURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid rate feed URL %q: %v", c.RateFeedURL, err))
		}
	}
	if c.RateRefreshEach < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid rate refresh interval %v: must be at least 1 minute", c.RateRefreshEach))
	}

	if c.SyncBatchSize < 1 || c.SyncBatchSize > 1000 {
		problems = append(problems, fmt.Sprintf("invalid sync batch size %d: must be between 1 and 1000", c.SyncBatchSize))
	}
	if c.SyncInterval < time.Second || c.SyncInterval > 24*time.Hour {
		problems = append(problems, fmt.Sprintf("invalid sync interval %v: must be between 1s and 24h", c.SyncInterval))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// SheetsConfigured reports whether the Google Sheets exporter can run.
func (c *Config) SheetsConfigured() bool {
	return c.GoogleSpreadsheetID != "" && (c.GoogleCredsFile != "" || c.GoogleCredsJSON != "")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
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
