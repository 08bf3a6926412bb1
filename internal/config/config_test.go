package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Default port %s, want 8080", cfg.Port)
	}
	if cfg.CacheSize != 3 {
		t.Errorf("Default cache size %d, want 3", cfg.CacheSize)
	}
	if cfg.BoostFactor != 0.30 {
		t.Errorf("Default boost factor %f, want 0.30", cfg.BoostFactor)
	}
	if cfg.HistoryTTL != 7*24*time.Hour {
		t.Errorf("Default history TTL %s, want 168h", cfg.HistoryTTL)
	}
	if cfg.HistoryMaxPerSession != 100 {
		t.Errorf("Default history cap %d, want 100", cfg.HistoryMaxPerSession)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_CACHE_SIZE", "5")
	t.Setenv("KEYWORD_BOOST_FACTOR", "0.5")
	t.Setenv("HISTORY_TTL", "48h")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Port %s, want 9000", cfg.Port)
	}
	if cfg.CacheSize != 5 {
		t.Errorf("Cache size %d, want 5", cfg.CacheSize)
	}
	if cfg.BoostFactor != 0.5 {
		t.Errorf("Boost factor %f, want 0.5", cfg.BoostFactor)
	}
	if cfg.HistoryTTL != 48*time.Hour {
		t.Errorf("History TTL %s, want 48h", cfg.HistoryTTL)
	}
	if cfg.RedisAddr != "redis.internal:6379" {
		t.Errorf("Redis addr %s, want redis.internal:6379", cfg.RedisAddr)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("MODEL_CACHE_SIZE", "lots")
	t.Setenv("HISTORY_TTL", "sometime")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.CacheSize != 3 {
		t.Errorf("Cache size %d, want fallback 3", cfg.CacheSize)
	}
	if cfg.HistoryTTL != 7*24*time.Hour {
		t.Errorf("History TTL %s, want fallback 168h", cfg.HistoryTTL)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("MODEL_CACHE_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Error("Expected error for zero cache size")
	}
}
