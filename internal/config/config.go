// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the environment defaults for CLI flags.
type Config struct {
	BaseURL     string
	APIKey      string
	OrgID       string
	HistoryPath string
	Workers     int
	HTTPTimeout time.Duration
}

// Default values
const (
	defaultWorkers     = 4
	defaultHTTPTimeout = 120 * time.Second
)

// Load reads configuration from .env files and environment variables.
// Nothing is required at this stage; missing values are reported by
// Options.Validate once flags have been applied.
func Load() (*Config, error) {
	// Try loading .env from multiple locations
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		BaseURL:     getEnvString("LANGSMITH_ENDPOINT", ""),
		APIKey:      getEnvString("LANGSMITH_API_KEY", ""),
		OrgID:       getEnvString("LANGSMITH_ORG_ID", ""),
		HistoryPath: getEnvString("REPORT_HISTORY_DB", ""),
		Workers:     getEnvInt("REPORT_WORKERS", defaultWorkers),
		HTTPTimeout: getEnvDuration("REPORT_HTTP_TIMEOUT", defaultHTTPTimeout),
	}

	if cfg.HistoryPath != "" {
		if err := EnsureDir(filepath.Dir(cfg.HistoryPath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "billing-report", ".env"))
	}

	return paths
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// EnsureDir creates a directory and all parent directories if they don't exist.
func EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
