package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Address != ":8080" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":8080")
	}
	if cfg.Database.Path != "data/subhub.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "data/subhub.db")
	}
	if cfg.Uploads.Dir != "data/uploads" {
		t.Errorf("Uploads.Dir = %q, want %q", cfg.Uploads.Dir, "data/uploads")
	}
	if cfg.Metrics.Address != ":9091" {
		t.Errorf("Metrics.Address = %q, want %q", cfg.Metrics.Address, ":9091")
	}
	if cfg.Auth.AccessTokenTTL != 15*time.Minute {
		t.Errorf("Auth.AccessTokenTTL = %v, want %v", cfg.Auth.AccessTokenTTL, 15*time.Minute)
	}
	if cfg.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("Auth.RefreshTokenTTL = %v, want %v", cfg.Auth.RefreshTokenTTL, 7*24*time.Hour)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  address: ":9000"
  secure_cookies: true
database:
  path: /var/lib/subhub/subhub.db
uploads:
  dir: /var/lib/subhub/uploads
metrics:
  enabled: true
  address: ":9100"
auth:
  access_token_ttl: 5m
  lockout_threshold: 3
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Address != ":9000" {
		t.Errorf("Server.Address = %q, want %q", cfg.Server.Address, ":9000")
	}
	if !cfg.Server.SecureCookies {
		t.Error("Server.SecureCookies = false, want true")
	}
	if cfg.Database.Path != "/var/lib/subhub/subhub.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = false, want true")
	}
	if cfg.Auth.AccessTokenTTL != 5*time.Minute {
		t.Errorf("Auth.AccessTokenTTL = %v, want %v", cfg.Auth.AccessTokenTTL, 5*time.Minute)
	}
	if cfg.Auth.LockoutThreshold != 3 {
		t.Errorf("Auth.LockoutThreshold = %d, want 3", cfg.Auth.LockoutThreshold)
	}
	// Unset fields keep their defaults
	if cfg.Auth.LockoutDuration != 30*time.Minute {
		t.Errorf("Auth.LockoutDuration = %v, want default", cfg.Auth.LockoutDuration)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/no/such/config.yaml"); err == nil {
		t.Error("LoadConfig() expected error for missing file")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not a map")
	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig() expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.AccessTokenTTL = -time.Minute
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() expected error for negative TTL")
	}
}
