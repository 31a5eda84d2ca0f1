package internal

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSubstrate persists history records in a single key/value table,
// mirroring the disk layout of the desktop app's own store. A byte quota
// (key plus value lengths, zero for unlimited) is enforced on every Set so
// the evict-and-retry discipline in the record store gets a distinguishable
// quota failure instead of an opaque disk error.
type SQLiteSubstrate struct {
	db    *sql.DB
	quota int64
}

// OpenSQLiteSubstrate opens (creating if needed) the vault database at path
func OpenSQLiteSubstrate(path string, quota int64) (*SQLiteSubstrate, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS vaultKV (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create vaultKV table: %w", err)
	}

	return &SQLiteSubstrate{db: db, quota: quota}, nil
}

// Close closes the underlying database
func (s *SQLiteSubstrate) Close() error {
	return s.db.Close()
}

// Get returns the value stored at key
func (s *SQLiteSubstrate) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM vaultKV WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, &SubstrateError{Key: key, Op: "get", Err: err}
	}
	return value, true, nil
}

// Set stores value at key, replacing any previous value
func (s *SQLiteSubstrate) Set(key, value string) error {
	if s.quota > 0 {
		used, err := s.usedBytes(key)
		if err != nil {
			return &SubstrateError{Key: key, Op: "set", Err: err}
		}
		if used+int64(len(key))+int64(len(value)) > s.quota {
			return &SubstrateError{Key: key, Op: "set", Err: ErrQuotaExceeded}
		}
	}

	_, err := s.db.Exec(
		"INSERT INTO vaultKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return &SubstrateError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// Remove deletes key; removing an absent key is a no-op
func (s *SQLiteSubstrate) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM vaultKV WHERE key = ?", key); err != nil {
		return &SubstrateError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// usedBytes sums the stored bytes of every row except the one about to be
// replaced, so same-key overwrites are charged only for their new size.
func (s *SQLiteSubstrate) usedBytes(excludeKey string) (int64, error) {
	var used sql.NullInt64
	err := s.db.QueryRow(
		"SELECT SUM(LENGTH(key) + LENGTH(value)) FROM vaultKV WHERE key != ?",
		excludeKey).Scan(&used)
	if err != nil {
		return 0, fmt.Errorf("quota accounting query failed: %w", err)
	}
	if !used.Valid {
		return 0, nil
	}
	return used.Int64, nil
}
