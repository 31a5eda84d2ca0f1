package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iksnae/patch-vault/internal/compress"
)

const (
	// IndexKey is the substrate key holding the serialized history index
	IndexKey = "history_index_v1"

	// PayloadKeyPrefix prefixes the per-record substrate keys
	PayloadKeyPrefix = "history_item_v1:"
)

// DefaultHistoryMax is the capacity ceiling used when no configuration
// overrides it.
const DefaultHistoryMax = 100

// PayloadKey returns the substrate key for a record id
func PayloadKey(id string) string {
	return PayloadKeyPrefix + id
}

// Store is the quota-bounded history record store. The index is kept newest
// first; every mutation leaves the index at or under the capacity ceiling and
// paired 1:1 with its payloads. Quota failures from the substrate are
// absorbed by evicting oldest entries and retrying, so the store is always
// left either fully updated or fully unchanged (possibly smaller).
type Store struct {
	sub Substrate
	max int

	// overridable for tests
	now   func() time.Time
	newID func() string
}

// NewStore creates a Store on top of sub with the given capacity ceiling.
// Ceilings below 1 fall back to DefaultHistoryMax.
func NewStore(sub Substrate, max int) *Store {
	if max < 1 {
		max = DefaultHistoryMax
	}
	return &Store{
		sub:   sub,
		max:   max,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Max returns the configured capacity ceiling
func (s *Store) Max() int {
	return s.max
}

// AddFields carries everything the caller knows about one run. Timestamp
// zero means "now".
type AddFields struct {
	Timestamp           int64
	Model               string
	Provider            string
	SystemPromptID      string
	SystemPromptName    string
	FileName            string
	DiffText            string
	InputText           string
	OutputText          string
	SystemPromptContent string
	DurationMs          *int64
	TokenCount          *int
}

// AddEntry records one run and returns its assigned id. The persist is two
// phase: the compressed payload first (evicting oldest entries while the
// substrate reports quota pressure), then the updated index (same
// discipline, rolling the payload back if the index can never be saved).
func (s *Store) AddEntry(fields AddFields) (string, error) {
	index := s.LoadIndex()

	id := s.newID()
	ts := fields.Timestamp
	if ts == 0 {
		ts = s.now().UnixMilli()
	}

	payload := ItemPayload{
		ItemMeta: ItemMeta{
			ID:               id,
			Timestamp:        ts,
			Model:            fields.Model,
			Provider:         fields.Provider,
			SystemPromptID:   fields.SystemPromptID,
			SystemPromptName: fields.SystemPromptName,
			FileName:         fields.FileName,
		},
		DiffText:            fields.DiffText,
		InputText:           fields.InputText,
		OutputText:          fields.OutputText,
		SystemPromptContent: fields.SystemPromptContent,
		DurationMs:          fields.DurationMs,
		TokenCount:          fields.TokenCount,
		Version:             PayloadVersion,
	}

	payloadJSON, err := json.Marshal(&payload)
	if err != nil {
		return "", &StoreError{Op: "add", Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}
	encoded, err := compress.EncodePayload(string(payloadJSON))
	if err != nil {
		return "", &StoreError{Op: "add", Err: err}
	}

	// Phase 1: persist the payload, evicting oldest entries on quota
	// pressure. The loop is bounded by the index size.
	for {
		err := s.sub.Set(PayloadKey(id), encoded)
		if err == nil {
			break
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return "", &StoreError{Op: "add", Err: err}
		}
		if len(index.Items) == 0 {
			// Nothing left to evict; abandon the new entry. Evictions
			// already made stay, so persist the shrunken index.
			s.persistIndexBestEffort(index)
			return "", &StoreError{Op: "add", Err: ErrQuotaExceeded}
		}
		index.Items = s.evictOldest(index.Items)
	}

	// Phase 2: prepend, de-duplicate, trim to capacity, persist.
	meta := payload.ItemMeta
	index.Items = dedupeByID(append([]ItemMeta{meta}, index.Items...))
	index.Items = s.trimToMax(index.Items)

	for {
		err := s.persistIndex(index)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return "", &StoreError{Op: "add", Err: err}
		}
		if len(index.Items) <= 1 {
			// Even an index holding only the new entry will not fit.
			// Roll the payload back and leave the substrate holding an
			// empty index.
			_ = s.sub.Remove(PayloadKey(id))
			index.Items = []ItemMeta{}
			s.persistIndexBestEffort(index)
			return "", &StoreError{Op: "add", Err: ErrQuotaExceeded}
		}
		index.Items = s.evictOldest(index.Items)
	}
}

// LoadIndex reads the persisted index. Anything structurally wrong (missing
// key, bad JSON, version mismatch) yields an empty index, never an error.
func (s *Store) LoadIndex() *Index {
	value, ok, err := s.sub.Get(IndexKey)
	if err != nil || !ok {
		return &Index{Version: IndexVersion, Items: []ItemMeta{}}
	}
	index, err := ParseIndex(value)
	if err != nil {
		LogWarn("Discarding unreadable history index: %v", err)
		return &Index{Version: IndexVersion, Items: []ItemMeta{}}
	}
	return index
}

// LoadPayload reads and decodes one record. Returns nil when the record
// cannot be opened: missing key, undecodable value, or version mismatch.
func (s *Store) LoadPayload(id string) *ItemPayload {
	value, ok, err := s.sub.Get(PayloadKey(id))
	if err != nil || !ok {
		return nil
	}
	text, err := compress.DecodePayload(value)
	if err != nil {
		LogWarn("Payload %s is unreadable: %v", id, err)
		return nil
	}
	payload, err := ParsePayload(text)
	if err != nil {
		LogWarn("Payload %s failed validation: %v", id, err)
		return nil
	}
	return payload
}

// RawPayload reads one record's persisted value without decoding it. Export
// carries these through unchanged for a byte-identical round trip.
func (s *Store) RawPayload(id string) (string, bool) {
	value, ok, err := s.sub.Get(PayloadKey(id))
	if err != nil {
		return "", false
	}
	return value, ok
}

// ClearAll removes every payload referenced by the index, then the index
// itself. Best effort: one failed removal does not stop the rest.
func (s *Store) ClearAll() error {
	index := s.LoadIndex()
	var firstErr error
	for _, item := range index.Items {
		if err := s.sub.Remove(PayloadKey(item.ID)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := s.sub.Remove(IndexKey); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return &StoreError{Op: "clear", Err: firstErr}
	}
	return nil
}

// ReplaceAll wholesale-replaces the store with the given index entries and
// raw payload values. Items must be newest first; they are trimmed to the
// capacity ceiling up front and then from the tail whenever the substrate
// reports quota pressure, so an import larger than the quota keeps its
// newest records. Returns the number of entries actually persisted.
func (s *Store) ReplaceAll(items []ItemMeta, payloads map[string]string) (int, error) {
	if err := s.ClearAll(); err != nil {
		return 0, err
	}

	items = dedupeByID(items)
	if len(items) > s.max {
		items = items[:s.max]
	}

	kept := make([]ItemMeta, 0, len(items))
	for _, item := range items {
		raw, ok := payloads[item.ID]
		if !ok {
			// No payload travelled with this id; drop the entry rather
			// than create a knowingly unreadable record.
			continue
		}
		err := s.sub.Set(PayloadKey(item.ID), raw)
		if err == nil {
			kept = append(kept, item)
			continue
		}
		if errors.Is(err, ErrQuotaExceeded) {
			// Everything after this item is older; stop here.
			break
		}
		return 0, &StoreError{Op: "replace", Err: err}
	}

	index := &Index{Version: IndexVersion, Items: kept}
	for {
		err := s.persistIndex(index)
		if err == nil {
			return len(index.Items), nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return 0, &StoreError{Op: "index", Err: err}
		}
		if len(index.Items) == 0 {
			return 0, &StoreError{Op: "index", Err: ErrQuotaExceeded}
		}
		index.Items = s.evictOldest(index.Items)
	}
}

// evictOldest removes the last (oldest) entry's payload and returns the
// shortened slice. The index is newest first, so eviction always pops the
// tail.
func (s *Store) evictOldest(items []ItemMeta) []ItemMeta {
	last := len(items) - 1
	if err := s.sub.Remove(PayloadKey(items[last].ID)); err != nil {
		LogWarn("Failed to remove evicted payload %s: %v", items[last].ID, err)
	}
	return items[:last]
}

// trimToMax drops over-capacity tail entries and their payloads
func (s *Store) trimToMax(items []ItemMeta) []ItemMeta {
	for len(items) > s.max {
		items = s.evictOldest(items)
	}
	return items
}

func (s *Store) persistIndex(index *Index) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return s.sub.Set(IndexKey, string(data))
}

func (s *Store) persistIndexBestEffort(index *Index) {
	if err := s.persistIndex(index); err != nil {
		LogWarn("Failed to persist index after eviction: %v", err)
	}
}

// dedupeByID keeps the first (newest) occurrence of each id
func dedupeByID(items []ItemMeta) []ItemMeta {
	seen := make(map[string]bool, len(items))
	out := items[:0:0]
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		out = append(out, item)
	}
	return out
}
