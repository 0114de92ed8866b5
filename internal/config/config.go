package config

import "time"

// Config is the root configuration for the worker.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Market    MarketConfig    `yaml:"market"`
	Collector CollectorConfig `yaml:"collector"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds the sqlite file location and retention horizon.
type DatabaseConfig struct {
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retention_days"`
}

// MarketConfig holds Steam Community Market endpoint settings.
type MarketConfig struct {
	BaseURL        string        `yaml:"base_url"`
	Currency       int           `yaml:"currency"`
	MaxAttempts    int           `yaml:"max_attempts"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	BackoffUnit    time.Duration `yaml:"backoff_unit"`
}

// CollectorConfig holds collection cycle settings.
type CollectorConfig struct {
	Interval   time.Duration `yaml:"interval"`
	Pace       time.Duration `yaml:"pace"`
	RunCeiling time.Duration `yaml:"run_ceiling"`
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "steam_analytics.db"
	}
	if c.Database.RetentionDays == 0 {
		c.Database.RetentionDays = 30
	}
	if c.Market.BaseURL == "" {
		c.Market.BaseURL = "https://steamcommunity.com"
	}
	if c.Market.Currency == 0 {
		c.Market.Currency = 1
	}
	if c.Market.MaxAttempts == 0 {
		c.Market.MaxAttempts = 3
	}
	if c.Market.AttemptTimeout == 0 {
		c.Market.AttemptTimeout = 120 * time.Second
	}
	if c.Market.BackoffUnit == 0 {
		c.Market.BackoffUnit = time.Second
	}
	if c.Collector.Interval == 0 {
		c.Collector.Interval = time.Hour
	}
	if c.Collector.Pace == 0 {
		c.Collector.Pace = time.Second
	}
	if c.Collector.RunCeiling == 0 {
		c.Collector.RunCeiling = 5 * time.Minute
	}
}
