package export

import (
	"encoding/json"
	"fmt"
)

// Fixed member names inside an export archive
const (
	ManifestName = "manifest.json"
	IndexName    = "history_index.json"
	ItemsName    = "history_items.json"
)

// ManifestMagic identifies an archive as one of ours
const ManifestMagic = "PATCH_VAULT_EXPORT"

// ExportVersion is the current export-format version
const ExportVersion = 1

// Manifest describes an export archive
type Manifest struct {
	Magic          string `json:"magic"`
	ExportVersion  int    `json:"export_version"`
	CreatedTS      int64  `json:"created_ts"` // epoch milliseconds
	HistoryVersion int    `json:"history_version"`
}

// ParseManifest parses and checks a manifest blob. A manifest with the wrong
// magic or an unknown export version is not ours.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest JSON: %w", err)
	}
	if m.Magic != ManifestMagic {
		return nil, fmt.Errorf("unrecognized manifest magic: %q", m.Magic)
	}
	if m.ExportVersion != ExportVersion {
		return nil, fmt.Errorf("unsupported export version: %d", m.ExportVersion)
	}
	return &m, nil
}
