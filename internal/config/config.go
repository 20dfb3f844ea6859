package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	ExchangeMock = "mock"
	ExchangeHTTP = "http"
)

type Config struct {
	DBSource string
	Storage  string
	Port     string
	Env      string
	LogLevel string

	ExchangeSource      string
	ExchangeURL         string
	ExchangeTimeout     time.Duration
	ExchangeLatency     time.Duration
	ExchangeFailureRate float64

	KafkaBrokers []string
	KafkaTopic   string
}

// IsDevelopment selects the human readable log output.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBSource:       os.Getenv("DB_SOURCE"),
		Storage:        getEnv("STORAGE", StoragePostgres),
		Port:           getEnv("SERVER_PORT", "8080"),
		Env:            getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ExchangeSource: getEnv("EXCHANGE_SOURCE", ExchangeMock),
		ExchangeURL:    os.Getenv("EXCHANGE_URL"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "transfer_completed"),
	}

	var err error
	if cfg.ExchangeTimeout, err = getDuration("EXCHANGE_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.ExchangeLatency, err = getDuration("EXCHANGE_LATENCY", 500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.ExchangeFailureRate, err = getFloat("EXCHANGE_FAILURE_RATE", 0.1); err != nil {
		return nil, err
	}
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DBSource == "" {
			return fmt.Errorf("DB_SOURCE environment variable is required")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	switch c.ExchangeSource {
	case ExchangeMock:
	case ExchangeHTTP:
		if c.ExchangeURL == "" {
			return fmt.Errorf("EXCHANGE_URL is required when EXCHANGE_SOURCE=%s", ExchangeHTTP)
		}
	default:
		return fmt.Errorf("EXCHANGE_SOURCE must be %q or %q, got %q", ExchangeMock, ExchangeHTTP, c.ExchangeSource)
	}

	if c.ExchangeFailureRate < 0 || c.ExchangeFailureRate > 1 {
		return fmt.Errorf("EXCHANGE_FAILURE_RATE must be between 0 and 1, got %v", c.ExchangeFailureRate)
	}
	if c.ExchangeTimeout <= 0 {
		return fmt.Errorf("EXCHANGE_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
