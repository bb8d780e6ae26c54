// Package config loads application configuration: defaults, then the YAML
// config file in the data directory, then BASELINE_* environment overrides.
// CLI flags are merged last by the command layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the recognized application options.
type Config struct {
	// DataDir is the root directory for the database, logs and lock file.
	DataDir string `yaml:"data_dir"`

	// LogLevel sets logging verbosity (trace, debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// AutosaveInterval is the cadence of best-effort session snapshots.
	AutosaveInterval time.Duration `yaml:"autosave_interval"`

	// ExportDir is where CSV and report exports land.
	ExportDir string `yaml:"export_dir"`
}

// envOverrides mirrors Config for envconfig: BASELINE_DATA_DIR,
// BASELINE_LOG_LEVEL, BASELINE_AUTOSAVE_INTERVAL, BASELINE_EXPORT_DIR.
type envOverrides struct {
	DataDir          string        `envconfig:"DATA_DIR"`
	LogLevel         string        `envconfig:"LOG_LEVEL"`
	AutosaveInterval time.Duration `envconfig:"AUTOSAVE_INTERVAL"`
	ExportDir        string        `envconfig:"EXPORT_DIR"`
}

// DefaultConfig returns a Config with sensible defaults rooted in the user's
// home directory.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	dataDir := filepath.Join(home, ".baseline")
	return &Config{
		DataDir:          dataDir,
		LogLevel:         "info",
		AutosaveInterval: 5 * time.Second,
		ExportDir:        filepath.Join(dataDir, "exports"),
	}
}

// Load builds the effective configuration: defaults, merged with the YAML
// file at path when it exists, then environment overrides. A missing file is
// not an error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		type yamlConfig struct {
			DataDir          string `yaml:"data_dir"`
			LogLevel         string `yaml:"log_level"`
			AutosaveInterval string `yaml:"autosave_interval"`
			ExportDir        string `yaml:"export_dir"`
		}
		var fileCfg yamlConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}

		if fileCfg.DataDir != "" {
			cfg.DataDir = fileCfg.DataDir
		}
		if fileCfg.LogLevel != "" {
			cfg.LogLevel = fileCfg.LogLevel
		}
		if fileCfg.AutosaveInterval != "" {
			interval, err := time.ParseDuration(fileCfg.AutosaveInterval)
			if err != nil {
				return nil, fmt.Errorf("invalid autosave_interval %q: %w", fileCfg.AutosaveInterval, err)
			}
			cfg.AutosaveInterval = interval
		}
		if fileCfg.ExportDir != "" {
			cfg.ExportDir = fileCfg.ExportDir
		}
	}

	var env envOverrides
	if err := envconfig.Process("BASELINE", &env); err != nil {
		return nil, fmt.Errorf("read environment overrides: %w", err)
	}
	if env.DataDir != "" {
		cfg.DataDir = env.DataDir
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.AutosaveInterval != 0 {
		cfg.AutosaveInterval = env.AutosaveInterval
	}
	if env.ExportDir != "" {
		cfg.ExportDir = env.ExportDir
	}

	return cfg, nil
}

// LoadFromDataDir loads config.yaml from the given data directory, or the
// default data directory when dir is empty. An explicit dir wins over any
// data_dir set in the file or the environment.
func LoadFromDataDir(dir string) (*Config, error) {
	lookup := dir
	if lookup == "" {
		lookup = DefaultConfig().DataDir
	}
	cfg, err := Load(filepath.Join(lookup, "config.yaml"))
	if err != nil {
		return nil, err
	}
	if dir != "" {
		cfg.DataDir = dir
	}
	return cfg, nil
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir cannot be empty")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}
	if c.AutosaveInterval <= 0 {
		return fmt.Errorf("autosave_interval must be positive, got %v", c.AutosaveInterval)
	}
	return nil
}

// DBPath returns the sqlite database path inside the data directory.
func (c *Config) DBPath() string { return filepath.Join(c.DataDir, "baseline.db") }

// LogDir returns the log directory inside the data directory.
func (c *Config) LogDir() string { return filepath.Join(c.DataDir, "logs") }

// LockPath returns the data-directory lock file path.
func (c *Config) LockPath() string { return filepath.Join(c.DataDir, "baseline.lock") }
