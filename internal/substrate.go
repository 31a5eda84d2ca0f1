package internal

import "sort"

// Substrate is the persistent string-keyed store the history subsystem runs
// on. The host provides it; the store never assumes anything beyond these
// three operations. Set returns ErrQuotaExceeded (possibly wrapped) when the
// write would exceed the substrate's total capacity.
type Substrate interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// MemorySubstrate is an in-process Substrate with an optional byte quota,
// counted over keys plus values. Quota zero means unlimited. Used by tests
// and as the ephemeral fallback when no database path is available.
type MemorySubstrate struct {
	quota int
	data  map[string]string
	used  int
}

// NewMemorySubstrate creates a MemorySubstrate with the given byte quota
func NewMemorySubstrate(quota int) *MemorySubstrate {
	return &MemorySubstrate{
		quota: quota,
		data:  make(map[string]string),
	}
}

// Get returns the value stored at key
func (m *MemorySubstrate) Get(key string) (string, bool, error) {
	value, ok := m.data[key]
	return value, ok, nil
}

// Set stores value at key, replacing any previous value. The replaced
// value's bytes are freed before the quota check so same-key overwrites
// behave like the browsers and embedded stores this models.
func (m *MemorySubstrate) Set(key, value string) error {
	next := m.used + len(key) + len(value)
	if prev, ok := m.data[key]; ok {
		next -= len(key) + len(prev)
	}
	if m.quota > 0 && next > m.quota {
		return ErrQuotaExceeded
	}
	m.data[key] = value
	m.used = next
	return nil
}

// Remove deletes key; removing an absent key is a no-op
func (m *MemorySubstrate) Remove(key string) error {
	if prev, ok := m.data[key]; ok {
		m.used -= len(key) + len(prev)
		delete(m.data, key)
	}
	return nil
}

// Keys returns all stored keys, sorted. Test helper.
func (m *MemorySubstrate) Keys() []string {
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UsedBytes returns the current quota accounting total
func (m *MemorySubstrate) UsedBytes() int {
	return m.used
}
