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
	Port          string
	FrontendURL   string
	DBPath        string
	TemplatesPath string
	RecordingsDir string
	SessionTTL    time.Duration
	OpenAI        OpenAIConfig

	// MaxRecordingBytes caps a single uploaded recording.
	MaxRecordingBytes int64
}

// OpenAIConfig controls the dialogue-generation and scoring collaborators.
// An empty APIKey disables the external calls entirely; the deterministic
// fallbacks take over.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	ttlMinutes := getEnvInt("SESSION_TTL_MINUTES", 60)
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		FrontendURL:       getEnv("FRONTEND_URL", ""),
		DBPath:            getEnv("DB_PATH", "./data/sparring.db"),
		TemplatesPath:     getEnv("TEMPLATES_PATH", "./data/scenarios.json"),
		RecordingsDir:     getEnv("RECORDINGS_DIR", "./data/recordings"),
		SessionTTL:        time.Duration(ttlMinutes) * time.Minute,
		MaxRecordingBytes: int64(getEnvInt("MAX_RECORDING_MB", 50)) << 20,
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			RequestTimeout: time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 15)) * time.Second,
		},
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
	if c.TemplatesPath == "" {
		return fmt.Errorf("TEMPLATES_PATH cannot be empty")
	}
	if c.RecordingsDir == "" {
		return fmt.Errorf("RECORDINGS_DIR cannot be empty")
	}
	if c.MaxRecordingBytes <= 0 {
		return fmt.Errorf("MAX_RECORDING_MB must be > 0")
	}
	if c.OpenAI.RequestTimeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT_SECONDS must be > 0")
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
