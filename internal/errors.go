package internal

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned by a Substrate when a write would exceed its
// storage capacity. Matched with errors.Is so wrapped quota failures from the
// SQLite layer still count.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// SubstrateError represents a failure accessing the persistent substrate
type SubstrateError struct {
	Key string
	Op  string // "get", "set", "remove"
	Err error
}

func (e *SubstrateError) Error() string {
	return fmt.Sprintf("substrate error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *SubstrateError) Unwrap() error {
	return e.Err
}

// StoreError represents a record-store operation that could not complete
type StoreError struct {
	Op  string // "add", "clear"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error [%s]: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConfigError represents an unusable configuration file
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
