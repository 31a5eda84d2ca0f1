package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// VaultDBName is the filename of the history database
const VaultDBName = "vault.db"

// DetectStoragePath returns the platform's default location for the vault
// database.
func DetectStoragePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	var baseDir string
	switch runtime.GOOS {
	case "darwin":
		baseDir = filepath.Join(home, "Library/Application Support/patch-vault")
	case "linux":
		baseDir = filepath.Join(home, ".local/share/patch-vault")
	default:
		return "", fmt.Errorf("unsupported OS: %s (only macOS and Linux are supported)", runtime.GOOS)
	}

	return filepath.Join(baseDir, VaultDBName), nil
}

// ResolveStoragePath picks the vault database path: explicit flag first,
// config file second, platform default last. The containing directory is
// created when absent.
func ResolveStoragePath(flagPath string, cfg *Config) (string, error) {
	path := flagPath
	if path == "" && cfg != nil {
		path = cfg.Storage
	}
	if path == "" {
		var err error
		path, err = DetectStoragePath()
		if err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	return path, nil
}
