// Package config provides configuration file support for duressd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the duressd configuration.
type Config struct {
	Listen   string         `yaml:"listen"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Safety   SafetyConfig   `yaml:"safety"`
	Activity ActivityConfig `yaml:"activity"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AlertsConfig configures the notification dispatcher.
type AlertsConfig struct {
	// DelayedDelay is how long a DELAYED alert waits before delivery.
	DelayedDelay string `yaml:"delayed_delay"`
	// SendTimeout bounds each channel delivery attempt.
	SendTimeout string `yaml:"send_timeout"`
	// QueueSize is the capacity of the background delivery queue.
	QueueSize int          `yaml:"queue_size"`
	Hooks     []HookConfig `yaml:"hooks"`
}

// HookConfig is one outbound notification channel.
type HookConfig struct {
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

// SafetyConfig configures the dead-man's-switch supervisor.
type SafetyConfig struct {
	// SweepInterval is how often armed switches are scanned for missed
	// check-ins.
	SweepInterval string `yaml:"sweep_interval"`
	// TransferAddress, when set, is where real funds are signalled to
	// move on a dead-man trigger.
	TransferAddress string `yaml:"transfer_address,omitempty"`
}

// ActivityConfig configures the activity log.
type ActivityConfig struct {
	// LogPath, when set, mirrors alert events to a hash-chained JSONL file.
	LogPath string `yaml:"log_path,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Listen: ":3000",
		Alerts: AlertsConfig{
			DelayedDelay: "2h",
			SendTimeout:  "10s",
			QueueSize:    100,
		},
		Safety: SafetyConfig{
			SweepInterval: "1m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the given path.
// Returns default config if the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to the given path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DelayedDelay parses the configured delayed-alert delay.
func (c *AlertsConfig) DelayedDelayDuration() time.Duration {
	return parseDuration(c.DelayedDelay, 2*time.Hour)
}

// SendTimeoutDuration parses the configured per-delivery timeout.
func (c *AlertsConfig) SendTimeoutDuration() time.Duration {
	return parseDuration(c.SendTimeout, 10*time.Second)
}

// SweepIntervalDuration parses the configured sweep interval.
func (c *SafetyConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(c.SweepInterval, time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
