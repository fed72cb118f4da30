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
	DBPath      string

	// APIBaseURL is the ClassCharts student API root, overridable for tests
	// and for pointing the bridge at a mock backend.
	APIBaseURL string

	// SessionRefreshInterval is how long a session token is considered fresh
	// after a successful login or heartbeat.
	SessionRefreshInterval time.Duration

	// KeepAliveInterval is how often the background worker re-checks session
	// freshness while a pupil is logged in.
	KeepAliveInterval time.Duration

	// RequestTimeout bounds every outbound call to the ClassCharts backend.
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                   getEnv("PORT", "8080"),
		FrontendURL:            getEnv("FRONTEND_URL", ""),
		DBPath:                 getEnv("DB_PATH", "./data/chartsbridge.db"),
		APIBaseURL:             getEnv("CLASSCHARTS_API_URL", "https://www.classcharts.com/apiv2student"),
		SessionRefreshInterval: time.Duration(getEnvInt("SESSION_REFRESH_SECONDS", 180)) * time.Second,
		KeepAliveInterval:      time.Duration(getEnvInt("KEEPALIVE_SECONDS", 35)) * time.Second,
		RequestTimeout:         time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
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
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("CLASSCHARTS_API_URL must be an http(s) URL")
	}
	if c.SessionRefreshInterval <= 0 {
		return fmt.Errorf("SESSION_REFRESH_SECONDS must be > 0")
	}
	if c.KeepAliveInterval <= 0 {
		return fmt.Errorf("KEEPALIVE_SECONDS must be > 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if env := os.Getenv("APP_ENV"); env != "" {
		return env == "development"
	}
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
