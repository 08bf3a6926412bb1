// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string

	// Artifact store.
	DBPath    string
	ModelsDir string

	// Registry cache.
	CacheSize int

	// Inference.
	BoostFactor float64
	LexiconPath string

	// Training.
	TrainingDataPath string

	// History store (Redis).
	RedisAddr            string
	RedisDB              int
	HistoryTTL           time.Duration
	HistoryMaxPerSession int
	RedisTimeout         time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		FrontendURL:      getEnv("FRONTEND_URL", ""),
		DBPath:           getEnv("DB_PATH", "./data/registry.db"),
		ModelsDir:        getEnv("MODELS_DIR", "./data/models"),
		CacheSize:        getEnvInt("MODEL_CACHE_SIZE", 3),
		BoostFactor:      getEnvFloat("KEYWORD_BOOST_FACTOR", 0.30),
		LexiconPath:      getEnv("LEXICON_PATH", ""),
		TrainingDataPath: getEnv("TRAINING_DATA_PATH", "./data/data.csv"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		HistoryTTL:       getEnvDuration("HISTORY_TTL", 7*24*time.Hour),
		RedisTimeout:     getEnvDuration("REDIS_TIMEOUT", 5*time.Second),

		HistoryMaxPerSession: getEnvInt("HISTORY_MAX_PER_SESSION", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.ModelsDir == "" {
		return fmt.Errorf("MODELS_DIR cannot be empty")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("MODEL_CACHE_SIZE must be > 0")
	}
	if c.BoostFactor < 0 {
		return fmt.Errorf("KEYWORD_BOOST_FACTOR must be >= 0")
	}
	if c.HistoryMaxPerSession <= 0 {
		return fmt.Errorf("HISTORY_MAX_PER_SESSION must be > 0")
	}
	if c.HistoryTTL <= 0 {
		return fmt.Errorf("HISTORY_TTL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
