// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// minSecretBytes is the shortest accepted HS256 signing secret.
const minSecretBytes = 32

// DefaultDBPath is used when DB_PATH is unset.
const DefaultDBPath = "./data/pantry.db"

// Config holds all configuration for the server.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string
	TokenTTL  time.Duration

	LogLevel  slog.Level
	LogFormat string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	CORSOrigin string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// DBPath returns the database path alone, for commands that do not need
// the rest of the configuration.
func DBPath() (string, error) {
	if err := loadDotEnv(); err != nil {
		return "", err
	}
	return getEnv("DB_PATH", DefaultDBPath), nil
}

func loadDotEnv() error {
	// A missing .env is fine; real environments set variables directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables alone.
func FromEnv() (*Config, error) {
	var errs []error

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be a valid port number"))
	}

	cfg := &Config{
		Port:       port,
		DBPath:     getEnv("DB_PATH", DefaultDBPath),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		LogFormat:  strings.ToLower(getEnv("LOG_FORMAT", "text")),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
	}

	if len(cfg.JWTSecret) < minSecretBytes {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretBytes))
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat))
	}
	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	cfg.TokenTTL = getDuration("TOKEN_TTL", 24*time.Hour, &errs)
	cfg.ReadTimeout = getDuration("READ_TIMEOUT", 10*time.Second, &errs)
	cfg.WriteTimeout = getDuration("WRITE_TIMEOUT", 30*time.Second, &errs)

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a positive duration, got %q", key, raw))
		return fallback
	}
	return d
}
