package testutil

import (
	"path/filepath"
	"testing"

	"github.com/iksnae/patch-vault/internal"
)

// OpenTempSubstrate creates a SQLite substrate backed by a throwaway
// database file under t.TempDir.
func OpenTempSubstrate(t *testing.T, quota int64) *internal.SQLiteSubstrate {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	sub, err := internal.OpenSQLiteSubstrate(path, quota)
	if err != nil {
		t.Fatalf("Failed to open sqlite substrate: %v", err)
	}
	t.Cleanup(func() {
		if err := sub.Close(); err != nil {
			t.Errorf("Failed to close sqlite substrate: %v", err)
		}
	})
	return sub
}
