// Package config loads service settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	Env            string
	LogLevel       string
	Port           int
	StorageBackend string
	DatabaseURL    string
	ServiceToken   string
	AllowedOrigins []string
	Timezone       string
	Location       *time.Location

	ReconcileInterval time.Duration

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string
}

// Load reads .env files (missing files are fine) and then the process
// environment. The returned config has not been validated.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c := &Config{
		Env:            getenv("APP_ENV", "development"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		StorageBackend: strings.ToLower(getenv("STORAGE_BACKEND", BackendPostgres)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ServiceToken:   os.Getenv("SERVICE_TOKEN"),
		Timezone:       getenv("TIMEZONE", "UTC"),

		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),
	}

	port, err := strconv.Atoi(getenv("PORT", "5200"))
	if err != nil {
		return nil, fmt.Errorf("PORT: %w", err)
	}
	c.Port = port

	interval, err := time.ParseDuration(getenv("RECONCILE_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("RECONCILE_INTERVAL: %w", err)
	}
	c.ReconcileInterval = interval

	for _, origin := range strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.AllowedOrigins = append(c.AllowedOrigins, origin)
		}
	}
	return c, nil
}

// Validate checks required settings and resolves the timezone.
func (c *Config) Validate() error {
	var errs []error
	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development, staging or production, got %q", c.Env))
	}
	switch c.StorageBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be postgres or memory, got %q", c.StorageBackend))
	}
	if c.ServiceToken == "" {
		errs = append(errs, errors.New("SERVICE_TOKEN is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.ReconcileInterval < time.Minute {
		errs = append(errs, fmt.Errorf("RECONCILE_INTERVAL must be at least 1m, got %s", c.ReconcileInterval))
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	} else {
		c.Location = loc
	}
	return errors.Join(errs...)
}

// ExportEnabled reports whether R2 snapshot export is configured.
func (c *Config) ExportEnabled() bool {
	return c.R2Bucket != "" && c.R2AccountID != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
