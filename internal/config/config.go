// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. An optional .env file in the working directory is loaded first;
// real environment variables always take precedence over it.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	LogLevel string
	SiteName string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible session store + caches)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible object storage for gallery and sponsor images
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string

	// Auth and caching
	SessionTTL           time.Duration
	ProfileCacheTTL      time.Duration
	QueryCacheTTL        time.Duration
	RequireConfirmation  bool
	AuthRateLimit        int64          // sign-in/sign-up POSTs per minute per IP
	FormRateLimit        int64          // public form POSTs per minute per IP
	TrustedProxies       []netip.Prefix // peers whose forwarding headers are believed
	MetricsEnabled       bool
	HousekeepingSchedule string // cron spec for announcement/poll expiry
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing or malformed in production mode.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      envOrDefault("APP_ENV", "development"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),
		SiteName: envOrDefault("SITE_NAME", "Clubhouse FC"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "clubhouse"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "clubhouse"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "clubhouse-media"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		HousekeepingSchedule: envOrDefault("HOUSEKEEPING_SCHEDULE", "@every 5m"),
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ProfileCacheTTL, err = durationOrDefault("PROFILE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.QueryCacheTTL, err = durationOrDefault("QUERY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequireConfirmation, err = boolOrDefault("AUTH_REQUIRE_CONFIRMATION", false); err != nil {
		return nil, err
	}
	if cfg.MetricsEnabled, err = boolOrDefault("METRICS_ENABLED", true); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = intOrDefault("AUTH_RATE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.FormRateLimit, err = intOrDefault("FORM_RATE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.TrustedProxies, err = prefixList("TRUSTED_PROXIES"); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// StorageEnabled reports whether enough S3 settings are present to upload media.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, v, err)
	}
	return d, nil
}

func boolOrDefault(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q: %w", key, v, err)
	}
	return b, nil
}

func intOrDefault(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: must be a positive integer, got %q", key, v)
	}
	return n, nil
}

// prefixList parses a comma-separated list of CIDRs or bare IPs.
func prefixList(key string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, item := range strings.Split(os.Getenv(key), ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if strings.Contains(item, "/") {
			p, err := netip.ParsePrefix(item)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid CIDR %q: %w", key, item, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(item)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid address %q: %w", key, item, err)
		}
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
