package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/waabox/testdeck/internal/domain"
)

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// URL is where the dashboard reaches the API.
	URL string `toml:"url"`
}

// RunnerConfig points at the external test-runner host.
type RunnerConfig struct {
	URL    string `toml:"url"`
	APIKey string `toml:"api_key"`
}

// DefaultsConfig holds execution defaults shown on the system settings page.
type DefaultsConfig struct {
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	MaxParallel        int    `toml:"max_parallel"`
	LogRetentionDays   int    `toml:"log_retention_days"`
	SupervisorSchedule string `toml:"supervisor_schedule"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// SeedConfig names the YAML file of pipelines loaded at startup.
type SeedConfig struct {
	Path string `toml:"path"`
}

// Config holds all testdeck configuration.
type Config struct {
	Server        ServerConfig                `toml:"server"`
	Runner        RunnerConfig                `toml:"runner"`
	Defaults      DefaultsConfig              `toml:"defaults"`
	Notifications domain.NotificationSettings `toml:"notifications"`
	Log           LogConfig                   `toml:"log"`
	Seed          SeedConfig                  `toml:"seed"`
}

const (
	defaultAddr      = ":8080"
	defaultServerURL = "http://localhost:8080"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server:        ServerConfig{Addr: defaultAddr, URL: defaultServerURL},
		Notifications: domain.DefaultNotificationSettings(),
		Log:           LogConfig{Level: "info"},
	}
}

// DefaultTimeout returns the default run timeout, zero when unset.
func (c Config) DefaultTimeout() time.Duration {
	return time.Duration(c.Defaults.TimeoutSeconds) * time.Second
}

// Retention returns how long execution history is kept, zero meaning forever.
func (c Config) Retention() time.Duration {
	return time.Duration(c.Defaults.LogRetentionDays) * 24 * time.Hour
}

// System returns the read-only settings exposed by the API. The runner API key is never included.
func (c Config) System() domain.SystemSettings {
	return domain.SystemSettings{
		RunnerURL:             c.Runner.URL,
		DefaultTimeoutSeconds: c.Defaults.TimeoutSeconds,
		MaxParallel:           c.Defaults.MaxParallel,
		LogRetentionDays:      c.Defaults.LogRetentionDays,
	}
}

// Validate checks values that would otherwise fail later at runtime.
func (c Config) Validate() error {
	if c.Defaults.TimeoutSeconds < 0 || c.Defaults.MaxParallel < 0 || c.Defaults.LogRetentionDays < 0 {
		return fmt.Errorf("defaults must not be negative")
	}
	if err := c.Notifications.Validate(); err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	return nil
}

// LoadFrom reads configuration from the given TOML file path on top of Default.
// If the file does not exist, it returns the defaults without error.
// Environment variables always take precedence over file values:
//   - TESTDECK_ADDR       overrides server.addr
//   - TESTDECK_SERVER_URL overrides server.url
//   - TESTDECK_RUNNER_URL overrides runner.url
//   - SLACK_WEBHOOK_URL   overrides notifications.slack_webhook_url
//   - LOG_PATH            overrides log.path
//   - LOG_LEVEL           overrides log.level
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default path for the testdeck config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.config/testdeck/config.toml"
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TESTDECK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TESTDECK_SERVER_URL"); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv("TESTDECK_RUNNER_URL"); v != "" {
		cfg.Runner.URL = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notifications.SlackWebhookURL = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes cfg to the given TOML file path, creating parent directories as needed.
// Existing file contents are overwritten. Permissions on the written file are 0600.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	if encErr := toml.NewEncoder(f).Encode(cfg); encErr != nil {
		f.Close()
		return encErr
	}
	return f.Close()
}
