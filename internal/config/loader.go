package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands ${VAR} environment references,
// applies defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads the file when it exists and otherwise returns the
// default configuration, so the worker runs without any config on disk.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		var cfg Config
		cfg.applyDefaults()
		return &cfg, nil
	}
	return Load(path)
}

// Validate checks settings that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Database.RetentionDays < 1 {
		return fmt.Errorf("database retention days must be positive, got %d", c.Database.RetentionDays)
	}
	if c.Market.MaxAttempts < 1 {
		return fmt.Errorf("market max attempts must be positive, got %d", c.Market.MaxAttempts)
	}
	if c.Market.AttemptTimeout <= 0 {
		return errors.New("market attempt timeout must be positive")
	}
	if c.Collector.Interval <= 0 {
		return errors.New("collector interval must be positive")
	}
	if c.Collector.RunCeiling <= 0 {
		return errors.New("collector run ceiling must be positive")
	}
	return nil
}
