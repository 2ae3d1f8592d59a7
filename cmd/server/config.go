// Package main provides the SubHub server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Auth     AuthConfig     `yaml:"auth"`
	Verbose  bool           `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Address       string `yaml:"address"`        // HTTP listen address (default: :8080)
	RequireHTTPS  bool   `yaml:"require_https"`  // Redirect plain HTTP to HTTPS
	SecureCookies bool   `yaml:"secure_cookies"` // Set the Secure flag on session cookies
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file (default: data/subhub.db)
}

// UploadsConfig contains cover image storage settings.
type UploadsConfig struct {
	Dir string `yaml:"dir"` // Upload directory (default: data/uploads)
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Expose Prometheus metrics
	Address string `yaml:"address"` // Metrics listen address (default: :9091)
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`  // JWT lifetime (default: 15m)
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"` // Refresh token lifetime (default: 168h)
	LockoutThreshold int           `yaml:"lockout_threshold"` // Failed logins before lockout (default: 5)
	LockoutDuration  time.Duration `yaml:"lockout_duration"`  // Lockout length (default: 30m)
	RateLimitPerIP   int           `yaml:"rate_limit_per_ip"` // Login attempts per IP per window (default: 5)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/subhub.db"
	}
	if c.Uploads.Dir == "" {
		c.Uploads.Dir = "data/uploads"
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9091"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == 0 {
		c.Auth.LockoutDuration = 30 * time.Minute
	}
	if c.Auth.RateLimitPerIP == 0 {
		c.Auth.RateLimitPerIP = 5
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Auth.AccessTokenTTL < 0 {
		return fmt.Errorf("auth.access_token_ttl must not be negative")
	}
	if c.Auth.RefreshTokenTTL < 0 {
		return fmt.Errorf("auth.refresh_token_ttl must not be negative")
	}
	return nil
}
