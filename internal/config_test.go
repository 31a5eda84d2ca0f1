package internal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HistoryMax != DefaultHistoryMax {
		t.Errorf("HistoryMax = %d, want %d", cfg.HistoryMax, DefaultHistoryMax)
	}
	if cfg.QuotaBytes != 0 {
		t.Errorf("QuotaBytes = %d, want 0", cfg.QuotaBytes)
	}
}

func TestLoadConfigValid(t *testing.T) {
	path := writeConfig(t, "history_max: 25\nquota_bytes: 1048576\nstorage: /tmp/vault.db\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HistoryMax != 25 || cfg.QuotaBytes != 1048576 || cfg.Storage != "/tmp/vault.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "quota_bytes: 4096\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.HistoryMax != DefaultHistoryMax {
		t.Errorf("unset history_max should keep the default, got %d", cfg.HistoryMax)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", ":\n  - not yaml {{"},
		{"zero history_max", "history_max: 0\n"},
		{"negative history_max", "history_max: -5\n"},
		{"negative quota", "quota_bytes: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadConfig(path)
			if err == nil {
				t.Fatal("LoadConfig accepted invalid config")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("got %T, want *ConfigError", err)
			}
		})
	}
}
