package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 10 {
		t.Errorf("Search.DefaultLimit = %d, want 10", cfg.Search.DefaultLimit)
	}
	if cfg.Kafka.Enabled || cfg.Postgres.Enabled {
		t.Error("kafka and postgres must be disabled by default")
	}
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9999
search:
  defaultLimit: 5
  maxResults: 50
redis:
  cacheTTL: 90s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Search.DefaultLimit != 5 {
		t.Errorf("Search.DefaultLimit = %d, want 5", cfg.Search.DefaultLimit)
	}
	if cfg.Redis.CacheTTL != 90*time.Second {
		t.Errorf("Redis.CacheTTL = %v, want 90s", cfg.Redis.CacheTTL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Metrics.Port = %d, want default 9090", cfg.Metrics.Port)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MV_SERVER_PORT", "7070")
	t.Setenv("MV_REDIS_ADDR", "redis.internal:6379")
	t.Setenv("MV_KAFKA_ENABLED", "true")
	t.Setenv("MV_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if !cfg.Kafka.Enabled {
		t.Error("Kafka.Enabled = false, want true")
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Errorf("Kafka.Brokers = %v, want two brokers", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalidLimits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
search:
  defaultLimit: 50
  maxResults: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted maxResults < defaultLimit")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load accepted a missing config file")
	}
}
