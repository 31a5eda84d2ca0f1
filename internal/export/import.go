package export

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/iksnae/patch-vault/internal"
	"github.com/iksnae/patch-vault/internal/archive"
)

// Reason is a typed import-failure code, one per stage exit. Callers map
// these to user-facing messages; they never see raw parse errors.
type Reason string

const (
	ReasonZipInvalid      Reason = "zip_invalid"
	ReasonMissingFiles    Reason = "missing_files"
	ReasonNotOurs         Reason = "not_ours"
	ReasonBadIndex        Reason = "bad_index"
	ReasonBadItems        Reason = "bad_items"
	ReasonStoreFailed     Reason = "store_failed"
	ReasonIndexSaveFailed Reason = "index_save_failed"
	ReasonQuota           Reason = "quota"
)

// ImportResult reports the outcome of an import
type ImportResult struct {
	OK     bool
	Count  int // entries persisted on success
	Reason Reason
}

func failure(reason Reason) ImportResult {
	return ImportResult{Reason: reason}
}

// Import replaces the store's contents with the records in an export
// archive. Stages run Parsing, Validating, Replacing; a failure in the first
// two leaves the existing store untouched. Replacing clears the store before
// writing, so a failure there can leave it empty or partially populated —
// smaller, but never internally inconsistent. An imported set larger than
// the substrate's quota is trimmed from the oldest end until it fits; Count
// reports what was actually kept.
func Import(store *internal.Store, data []byte) ImportResult {
	// Parsing
	members := archive.Extract(data)
	if members == nil {
		return failure(ReasonZipInvalid)
	}

	// Validating
	manifestData, ok1 := members[ManifestName]
	indexData, ok2 := members[IndexName]
	itemsData, ok3 := members[ItemsName]
	if !ok1 || !ok2 || !ok3 {
		return failure(ReasonMissingFiles)
	}

	if _, err := ParseManifest(manifestData); err != nil {
		internal.LogWarn("Import rejected: %v", err)
		return failure(ReasonNotOurs)
	}

	index, err := internal.ParseIndex(string(indexData))
	if err != nil {
		internal.LogWarn("Import rejected: %v", err)
		return failure(ReasonBadIndex)
	}

	var payloads map[string]string
	if err := json.Unmarshal(itemsData, &payloads); err != nil {
		internal.LogWarn("Import rejected: bad items map: %v", err)
		return failure(ReasonBadItems)
	}

	// Replacing: normalize newest first, then wholesale-replace with the
	// same evict-on-quota discipline the store applies to single adds.
	items := index.Items
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp > items[j].Timestamp
	})

	count, err := store.ReplaceAll(items, payloads)
	if err != nil {
		if errors.Is(err, internal.ErrQuotaExceeded) {
			return failure(ReasonQuota)
		}
		var storeErr *internal.StoreError
		if errors.As(err, &storeErr) && storeErr.Op == "index" {
			return failure(ReasonIndexSaveFailed)
		}
		return failure(ReasonStoreFailed)
	}

	return ImportResult{OK: true, Count: count}
}
