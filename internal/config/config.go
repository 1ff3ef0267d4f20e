// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds all application configuration. Endpoint URLs and the bearer
// credential may be empty at startup; requests that need them fail with a
// not-configured error rather than preventing boot, matching how the
// deployed handlers behave when an env var is missing.
type Config struct {
	Port string

	ChatEndpoint    string
	PredictEndpoint string
	AuthToken       string
	AuthTokenParam  string

	ChatLogTable    string
	BugTicketsTable string
	RecordsTable    string

	InferenceTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		ChatEndpoint:     getEnv("CHAT_ENDPOINT", ""),
		PredictEndpoint:  getEnv("PREDICT_ENDPOINT", ""),
		AuthToken:        getEnv("AUTH_TOKEN", ""),
		AuthTokenParam:   getEnv("AUTH_TOKEN_PARAM", ""),
		ChatLogTable:     getEnv("CHAT_LOG_TABLE", "ChatLog"),
		BugTicketsTable:  getEnv("BUG_TICKETS_TABLE", "BugTickets"),
		RecordsTable:     getEnv("RECORDS_TABLE", "Records"),
		InferenceTimeout: getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that must always be set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.ChatLogTable == "" || c.BugTicketsTable == "" || c.RecordsTable == "" {
		return fmt.Errorf("table names cannot be empty")
	}
	if c.InferenceTimeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must be > 0")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
