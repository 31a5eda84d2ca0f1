package internal

import (
	"encoding/json"
	"fmt"
)

// IndexVersion tags the persisted history index format
const IndexVersion = 1

// PayloadVersion tags the persisted per-record payload format
const PayloadVersion = 1

// ItemMeta is one index entry: enough to list a run without loading its
// payload.
type ItemMeta struct {
	ID               string `json:"id"`
	Timestamp        int64  `json:"timestamp"` // epoch milliseconds
	Model            string `json:"model"`
	Provider         string `json:"provider"`
	SystemPromptID   string `json:"systemPromptId"`
	SystemPromptName string `json:"systemPromptName"`
	FileName         string `json:"fileName"`
}

// ItemPayload is the full record of one patch-application run
type ItemPayload struct {
	ItemMeta
	DiffText            string `json:"diffText"`
	InputText           string `json:"inputText"`
	OutputText          string `json:"outputText"`
	SystemPromptContent string `json:"systemPromptContent"`
	DurationMs          *int64 `json:"durationMs"`
	TokenCount          *int   `json:"tokenCount"`
	Version             int    `json:"version"`
}

// Index is the ordered history index, newest first
type Index struct {
	Version int        `json:"version"`
	Items   []ItemMeta `json:"items"`
}

// ParseIndex parses and validates a persisted index. Any structural problem
// (bad JSON, wrong version, entry without an id) yields an error; callers
// fall back to an empty index.
func ParseIndex(value string) (*Index, error) {
	var index Index
	if err := json.Unmarshal([]byte(value), &index); err != nil {
		return nil, fmt.Errorf("failed to parse index JSON: %w", err)
	}
	if index.Version != IndexVersion {
		return nil, fmt.Errorf("unsupported index version: %d", index.Version)
	}
	for i, item := range index.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("index item %d has no id", i)
		}
	}
	if index.Items == nil {
		index.Items = []ItemMeta{}
	}
	return &index, nil
}

// ParsePayload parses and validates a decompressed payload. A payload whose
// version tag does not match the current format is rejected.
func ParsePayload(text string) (*ItemPayload, error) {
	var payload ItemPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse payload JSON: %w", err)
	}
	if payload.Version != PayloadVersion {
		return nil, fmt.Errorf("unsupported payload version: %d", payload.Version)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("payload has no id")
	}
	return &payload, nil
}
