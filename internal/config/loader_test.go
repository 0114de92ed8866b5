package config

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

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Market.BaseURL != "https://steamcommunity.com" {
		t.Errorf("Market.BaseURL = %q", cfg.Market.BaseURL)
	}
	if cfg.Market.MaxAttempts != 3 {
		t.Errorf("Market.MaxAttempts = %d, want 3", cfg.Market.MaxAttempts)
	}
	if cfg.Market.AttemptTimeout != 120*time.Second {
		t.Errorf("Market.AttemptTimeout = %v, want 2m", cfg.Market.AttemptTimeout)
	}
	if cfg.Collector.Interval != time.Hour {
		t.Errorf("Collector.Interval = %v, want 1h", cfg.Collector.Interval)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
market:
  currency: 5
collector:
  interval: 30m
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Market.Currency != 5 {
		t.Errorf("Market.Currency = %d, want 5", cfg.Market.Currency)
	}
	if cfg.Collector.Interval != 30*time.Minute {
		t.Errorf("Collector.Interval = %v, want 30m", cfg.Collector.Interval)
	}
	// Unset sections still pick up defaults.
	if cfg.Database.Path != "steam_analytics.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Database.RetentionDays != 30 {
		t.Errorf("Database.RetentionDays = %d, want 30", cfg.Database.RetentionDays)
	}
	if cfg.Market.MaxAttempts != 3 {
		t.Errorf("Market.MaxAttempts = %d, want 3", cfg.Market.MaxAttempts)
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/var/data/orders.db")

	path := writeConfig(t, `
database:
  path: ${TEST_DB_PATH}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/var/data/orders.db" {
		t.Errorf("Database.Path = %q, want env expansion", cfg.Database.Path)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [not: a: mapping")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults pass", func(c *Config) {}, true},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, false},
		{"negative port", func(c *Config) { c.Server.Port = -1 }, false},
		{"zero attempts", func(c *Config) { c.Market.MaxAttempts = -1 }, false},
		{"negative retention", func(c *Config) { c.Database.RetentionDays = -5 }, false},
		{"negative timeout", func(c *Config) { c.Market.AttemptTimeout = -time.Second }, false},
		{"negative interval", func(c *Config) { c.Collector.Interval = -time.Minute }, false},
		{"negative ceiling", func(c *Config) { c.Collector.RunCeiling = -time.Minute }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			cfg.applyDefaults()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantOK && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
