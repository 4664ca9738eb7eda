package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ServerConfig holds connection settings for the Perch API.
type ServerConfig struct {
	// BaseURL is the root URL of the Perch deployment.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// AccountID is the id of the signed-in account; cursor and
	// seen-set storage is namespaced by this value.
	AccountID string `mapstructure:"account_id" yaml:"account_id"`

	// Handle is the signed-in account's handle, for display.
	Handle string `mapstructure:"handle" yaml:"handle"`
}

// EngineConfig holds tuning knobs for the notification engine.
type EngineConfig struct {
	// PollIntervalSec is how often (in seconds) the poller ticks.
	PollIntervalSec int `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`

	// ToastTTLSec is how long an undismissed toast stays visible.
	ToastTTLSec int `mapstructure:"toast_ttl_sec" yaml:"toast_ttl_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig holds logging preferences. The TUI owns the terminal, so
// logs go to a file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// Configured reports whether first-run setup has completed.
func (c *AppConfig) Configured() bool {
	return c.Server.BaseURL != "" && c.Server.AccountID != ""
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/perch/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "perch", "config.yaml")
}

// DefaultDBPath returns the default path for the local state database.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "perch.db")
	}
	return filepath.Join(home, ".local", "state", "perch", "perch.db")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Engine: EngineConfig{
			PollIntervalSec: 45,
			ToastTTLSec:     6,
		},
		Display: DisplayConfig{Theme: "default"},
		Log:     LogConfig{Level: "info"},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("engine.poll_interval_sec", 45)
	v.SetDefault("engine.toast_ttl_sec", 6)
	v.SetDefault("display.theme", "default")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultAppConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultAppConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Engine.PollIntervalSec <= 0 {
		cfg.Engine.PollIntervalSec = 45
	}
	if cfg.Engine.ToastTTLSec <= 0 {
		cfg.Engine.ToastTTLSec = 6
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("server", cfg.Server)
	v.Set("engine", cfg.Engine)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
