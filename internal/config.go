package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the host-side settings the history subsystem reads
type Config struct {
	// HistoryMax is the capacity ceiling of the history index
	HistoryMax int `yaml:"history_max"`

	// Storage optionally overrides the vault database location
	Storage string `yaml:"storage,omitempty"`

	// QuotaBytes caps the total bytes stored in the substrate; zero means
	// unlimited
	QuotaBytes int64 `yaml:"quota_bytes,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	return &Config{HistoryMax: DefaultHistoryMax}
}

// DefaultConfigPath returns the expected config file location
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".patch-vault.yaml"), nil
}

// LoadConfig reads the config file at path (the default location when path
// is empty). A missing file yields defaults; an unreadable or invalid file
// is an error so a typo does not silently shrink the user's history.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	if cfg.HistoryMax < 1 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("history_max must be at least 1, got %d", cfg.HistoryMax)}
	}
	if cfg.QuotaBytes < 0 {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("quota_bytes must not be negative, got %d", cfg.QuotaBytes)}
	}
	return cfg, nil
}
