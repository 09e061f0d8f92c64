package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client
type Config struct {
	API       APIConfig
	Storage   StorageConfig
	Log       LogConfig
	Scheduler SchedulerConfig
}

// APIConfig holds backend connection configuration
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
}

// StorageConfig holds local state configuration
type StorageConfig struct {
	Path          string // sqlite file, ":memory:" keeps nothing across restarts
	CredentialKey string // base64 fernet key, overrides KeyPath
	KeyPath       string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// SchedulerConfig holds the cron specs of the background jobs. An empty spec disables the job.
type SchedulerConfig struct {
	SessionKeepalive string
	PortfolioRefresh string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("API_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid API_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid API_TIMEOUT: must be positive")
	}

	rateLimit, err := strconv.ParseFloat(getEnv("API_RATE_LIMIT", "0"), 64)
	if err != nil || rateLimit < 0 {
		return nil, fmt.Errorf("invalid API_RATE_LIMIT %q", os.Getenv("API_RATE_LIMIT"))
	}

	pretty, err := strconv.ParseBool(getEnv("LOG_PRETTY", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_PRETTY: %w", err)
	}

	config := &Config{
		API: APIConfig{
			BaseURL:   strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5555"), "/"),
			Timeout:   timeout,
			RateLimit: rateLimit,
		},
		Storage: StorageConfig{
			Path:          getEnv("STORAGE_PATH", "./data/algotrade_client.db"),
			CredentialKey: os.Getenv("CREDENTIAL_KEY"),
			KeyPath:       getEnv("CREDENTIAL_KEY_PATH", "./data/credential.key"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
			Pretty: pretty,
		},
		Scheduler: SchedulerConfig{
			SessionKeepalive: getEnv("SESSION_KEEPALIVE", "@every 10m"),
			PortfolioRefresh: os.Getenv("PORTFOLIO_REFRESH"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
