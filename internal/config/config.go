package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// RuntimeDir holds the runtime JSON documents (scan cache, advisory
	// results, cleanup plans). Empty selects the default next to the config.
	RuntimeDir string `yaml:"runtime_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// RecentWindowHours marks files modified within the window as recent;
	// recent files get a stricter caution level.
	RecentWindowHours int `yaml:"recent_window_hours"`

	// LargeFileThresholdMB is the size floor for the large-file sweep.
	LargeFileThresholdMB int64 `yaml:"large_file_threshold_mb"`

	// ProgressIntervalMS throttles progress events.
	ProgressIntervalMS int `yaml:"progress_interval_ms"`

	// ExtraProtectedPaths extends the built-in forbidden roots.
	ExtraProtectedPaths []string `yaml:"extra_protected_paths"`

	DryRun  bool `yaml:"dry_run"`
	Verbose bool `yaml:"verbose"`
}

// Load loads configuration from a file
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error: %s", c.LogLevel)
	}

	if c.RecentWindowHours < 0 {
		return fmt.Errorf("recent window must be >= 0")
	}
	if c.LargeFileThresholdMB <= 0 {
		return fmt.Errorf("large file threshold must be > 0")
	}
	if c.ProgressIntervalMS < 0 {
		return fmt.Errorf("progress interval must be >= 0")
	}

	for _, path := range c.ExtraProtectedPaths {
		if !filepath.IsAbs(path) && !isWindowsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	return nil
}

// isWindowsAbs recognizes drive-rooted paths even when the binary runs on a
// non-Windows host, as in tests.
func isWindowsAbs(path string) bool {
	return len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/')
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "diskwise")
	return filepath.Join(configDir, "config.yaml"), nil
}

// GetRuntimeDir resolves the runtime document directory for a config.
func (c *Config) GetRuntimeDir() (string, error) {
	if c.RuntimeDir != "" {
		return c.RuntimeDir, nil
	}
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(configPath), "runtime"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
