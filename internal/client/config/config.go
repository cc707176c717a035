package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the accounts CLI.
//
// Fields:
//   - ServerURL: base URL of the accounts HTTP API.
//   - RequestTimeout: per-request deadline applied by the HTTP client.
//   - SessionDB: path of the local SQLite file keeping the login session.
//   - OnlineCheckInterval: how often the CLI probes server reachability.
type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	SessionDB           string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8000"
	c.RequestTimeout = 10 * time.Second
	c.SessionDB = "accounts-cli.db"
	c.OnlineCheckInterval = 3 * time.Second
}

// Validate reports settings the CLI cannot run with.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server url is empty")
	}
	if c.SessionDB == "" {
		return fmt.Errorf("session database path is empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
