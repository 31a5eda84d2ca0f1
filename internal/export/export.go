package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/iksnae/patch-vault/internal"
	"github.com/iksnae/patch-vault/internal/archive"
)

// Export serializes the store's full contents into a single portable ZIP:
// a manifest, the index, and a map of id to raw persisted payload string.
// Payloads are carried through exactly as stored — already compressed — so a
// later import round-trips byte for byte. Records whose payload is missing
// from the substrate are skipped, matching the read path's tolerance for
// single corrupt records.
func Export(store *internal.Store, now time.Time) ([]byte, error) {
	index := store.LoadIndex()

	items := make(map[string]string, len(index.Items))
	kept := make([]internal.ItemMeta, 0, len(index.Items))
	for _, item := range index.Items {
		raw, ok := store.RawPayload(item.ID)
		if !ok {
			internal.LogWarn("Skipping %s during export: payload missing", item.ID)
			continue
		}
		items[item.ID] = raw
		kept = append(kept, item)
	}
	index.Items = kept

	manifest := Manifest{
		Magic:          ManifestMagic,
		ExportVersion:  ExportVersion,
		CreatedTS:      now.UnixMilli(),
		HistoryVersion: internal.IndexVersion,
	}

	manifestJSON, err := json.Marshal(&manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	indexJSON, err := json.Marshal(index)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal index: %w", err)
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	entries := []archive.Entry{
		{Name: ManifestName, Data: manifestJSON},
		{Name: IndexName, Data: indexJSON},
		{Name: ItemsName, Data: itemsJSON},
	}
	return archive.Build(entries, now)
}
