package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allKeys = []string{
	"DB_SOURCE", "STORAGE", "SERVER_PORT", "ENVIRONMENT", "LOG_LEVEL",
	"EXCHANGE_SOURCE", "EXCHANGE_URL", "EXCHANGE_TIMEOUT", "EXCHANGE_LATENCY",
	"EXCHANGE_FAILURE_RATE", "KAFKA_BROKERS", "KAFKA_TOPIC",
}

// isolate clears every config variable and runs the test from an empty
// directory so no stray .env file is picked up.
func isolate(t *testing.T) {
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("STORAGE", "memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" || cfg.LogLevel != "info" {
		t.Errorf("unexpected server defaults: %+v", cfg)
	}
	if cfg.ExchangeSource != ExchangeMock || cfg.ExchangeTimeout != 2*time.Second ||
		cfg.ExchangeLatency != 500*time.Millisecond || cfg.ExchangeFailureRate != 0.1 {
		t.Errorf("unexpected exchange defaults: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 0 || cfg.KafkaTopic != "transfer_completed" {
		t.Errorf("unexpected kafka defaults: %+v", cfg)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development environment")
	}
}

func TestLoad_FromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DB_SOURCE", "postgres://u:p@localhost:5432/globalpay")
	t.Setenv("EXCHANGE_SOURCE", "http")
	t.Setenv("EXCHANGE_URL", "http://rates:9000")
	t.Setenv("EXCHANGE_TIMEOUT", "750ms")
	t.Setenv("EXCHANGE_FAILURE_RATE", "0")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage != StoragePostgres || cfg.ExchangeTimeout != 750*time.Millisecond || cfg.ExchangeFailureRate != 0 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("unexpected brokers: %q", cfg.KafkaBrokers)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	isolate(t)
	if err := os.WriteFile(filepath.Join(".", ".env"), []byte("STORAGE=memory\nSERVER_PORT=9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are set, even to "".
	os.Unsetenv("STORAGE")
	os.Unsetenv("SERVER_PORT")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage != StorageMemory || cfg.Port != "9090" {
		t.Errorf("expected values from .env, got %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "postgres without dsn", env: map[string]string{"STORAGE": "postgres"}},
		{name: "unknown storage", env: map[string]string{"STORAGE": "redis"}},
		{name: "http source without url", env: map[string]string{"STORAGE": "memory", "EXCHANGE_SOURCE": "http"}},
		{name: "unknown source", env: map[string]string{"STORAGE": "memory", "EXCHANGE_SOURCE": "ecb"}},
		{name: "bad timeout", env: map[string]string{"STORAGE": "memory", "EXCHANGE_TIMEOUT": "soon"}},
		{name: "failure rate out of range", env: map[string]string{"STORAGE": "memory", "EXCHANGE_FAILURE_RATE": "1.5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
