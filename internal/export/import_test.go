package export

import (
	"encoding/json"
	"testing"

	"github.com/iksnae/patch-vault/internal"
	"github.com/iksnae/patch-vault/internal/archive"
	"github.com/iksnae/patch-vault/testutil"
)

// rebuildWith re-packs an export archive with one member replaced (or
// removed when data is nil).
func rebuildWith(t *testing.T, original []byte, name string, data []byte) []byte {
	t.Helper()
	members := archive.Extract(original)
	if members == nil {
		t.Fatal("original archive unreadable")
	}
	var entries []archive.Entry
	for memberName, memberData := range members {
		if memberName == name {
			continue
		}
		entries = append(entries, archive.Entry{Name: memberName, Data: memberData})
	}
	if data != nil {
		entries = append(entries, archive.Entry{Name: name, Data: data})
	}
	rebuilt, err := archive.Build(entries, exportNow)
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	return rebuilt
}

func exportedFixture(t *testing.T, count int) []byte {
	t.Helper()
	store, _ := testutil.NewStore(t, 10)
	testutil.FillStore(t, store, count)
	data, err := Export(store, exportNow)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	return data
}

func TestImportInvalidZip(t *testing.T) {
	store, _ := testutil.NewStore(t, 10)
	for _, input := range [][]byte{nil, {}, []byte("not a zip at all")} {
		result := Import(store, input)
		if result.OK || result.Reason != ReasonZipInvalid {
			t.Errorf("Import(%d bytes) = %+v, want zip_invalid", len(input), result)
		}
	}
}

func TestImportMissingMembers(t *testing.T) {
	data := exportedFixture(t, 2)
	store, _ := testutil.NewStore(t, 10)

	for _, name := range []string{ManifestName, IndexName, ItemsName} {
		stripped := rebuildWith(t, data, name, nil)
		result := Import(store, stripped)
		if result.OK || result.Reason != ReasonMissingFiles {
			t.Errorf("import without %s = %+v, want missing_files", name, result)
		}
	}
}

func TestImportForeignManifestLeavesStoreUntouched(t *testing.T) {
	data := exportedFixture(t, 2)

	store, _ := testutil.NewStore(t, 10)
	existing := testutil.FillStore(t, store, 3)

	tampered := rebuildWith(t, data, ManifestName,
		[]byte(`{"magic":"SOMEONE_ELSES_FORMAT","export_version":1,"created_ts":0,"history_version":1}`))
	result := Import(store, tampered)
	if result.OK || result.Reason != ReasonNotOurs {
		t.Fatalf("Import = %+v, want not_ours", result)
	}

	// Failure happened in Validating: nothing was cleared or replaced.
	index := store.LoadIndex()
	if len(index.Items) != 3 {
		t.Fatalf("store changed after rejected import: %d items", len(index.Items))
	}
	for _, id := range existing {
		if store.LoadPayload(id) == nil {
			t.Errorf("existing record %s lost after rejected import", id)
		}
	}
}

func TestImportUnsupportedExportVersion(t *testing.T) {
	data := exportedFixture(t, 1)
	store, _ := testutil.NewStore(t, 10)

	tampered := rebuildWith(t, data, ManifestName,
		[]byte(`{"magic":"PATCH_VAULT_EXPORT","export_version":99,"created_ts":0,"history_version":1}`))
	result := Import(store, tampered)
	if result.OK || result.Reason != ReasonNotOurs {
		t.Errorf("Import = %+v, want not_ours", result)
	}
}

func TestImportBadIndex(t *testing.T) {
	data := exportedFixture(t, 1)
	store, _ := testutil.NewStore(t, 10)

	for _, bad := range []string{"not json", `{"version":99,"items":[]}`, `{"version":1,"items":[{}]}`} {
		tampered := rebuildWith(t, data, IndexName, []byte(bad))
		result := Import(store, tampered)
		if result.OK || result.Reason != ReasonBadIndex {
			t.Errorf("import with index %q = %+v, want bad_index", bad, result)
		}
	}
}

func TestImportBadItems(t *testing.T) {
	data := exportedFixture(t, 1)
	store, _ := testutil.NewStore(t, 10)

	for _, bad := range []string{"not json", `[1,2,3]`, `{"id": 42}`} {
		tampered := rebuildWith(t, data, ItemsName, []byte(bad))
		result := Import(store, tampered)
		if result.OK || result.Reason != ReasonBadItems {
			t.Errorf("import with items %q = %+v, want bad_items", bad, result)
		}
	}
}

func TestImportReplacesExistingStore(t *testing.T) {
	data := exportedFixture(t, 2)

	store, _ := testutil.NewStore(t, 10)
	old := testutil.FillStore(t, store, 4)

	result := Import(store, data)
	if !result.OK || result.Count != 2 {
		t.Fatalf("Import = %+v, want 2 entries", result)
	}

	index := store.LoadIndex()
	if len(index.Items) != 2 {
		t.Fatalf("index holds %d items after import, want 2", len(index.Items))
	}
	for _, id := range old {
		if store.LoadPayload(id) != nil {
			t.Errorf("pre-import record %s survived the wholesale replace", id)
		}
	}
}

func TestImportTruncatesToCapacity(t *testing.T) {
	data := exportedFixture(t, 6)

	store, _ := testutil.NewStore(t, 3)
	result := Import(store, data)
	if !result.OK {
		t.Fatalf("Import failed: %s", result.Reason)
	}
	if result.Count != 3 {
		t.Errorf("imported %d entries into max=3 store, want 3", result.Count)
	}

	// The newest three survive.
	index := store.LoadIndex()
	for i := 1; i < len(index.Items); i++ {
		if index.Items[i-1].Timestamp < index.Items[i].Timestamp {
			t.Errorf("imported index out of order: %+v", index.Items)
		}
	}
}

func TestImportNormalizesShuffledIndex(t *testing.T) {
	data := exportedFixture(t, 3)

	// Reverse the index order inside the archive; import must restore
	// newest-first.
	members := archive.Extract(data)
	var index internal.Index
	if err := json.Unmarshal(members[IndexName], &index); err != nil {
		t.Fatal(err)
	}
	for i, j := 0, len(index.Items)-1; i < j; i, j = i+1, j-1 {
		index.Items[i], index.Items[j] = index.Items[j], index.Items[i]
	}
	shuffled, err := json.Marshal(&index)
	if err != nil {
		t.Fatal(err)
	}

	store, _ := testutil.NewStore(t, 10)
	result := Import(store, rebuildWith(t, data, IndexName, shuffled))
	if !result.OK || result.Count != 3 {
		t.Fatalf("Import = %+v", result)
	}

	imported := store.LoadIndex()
	for i := 1; i < len(imported.Items); i++ {
		if imported.Items[i-1].Timestamp < imported.Items[i].Timestamp {
			t.Fatalf("import did not normalize ordering: %+v", imported.Items)
		}
	}
}

func TestImportQuotaTrimsFromTail(t *testing.T) {
	data := exportedFixture(t, 5)

	// Measure one entry's footprint, then build a destination substrate
	// too small for the whole set.
	probeStore, probeSub := testutil.NewStore(t, 10)
	testutil.FillStore(t, probeStore, 1)
	cost := probeSub.UsedBytes()

	store, _ := testutil.NewQuotaStore(t, 10, cost*3)
	result := Import(store, data)
	if !result.OK {
		t.Fatalf("Import failed outright: %s", result.Reason)
	}
	if result.Count == 0 || result.Count >= 5 {
		t.Fatalf("imported %d entries, want a trimmed non-empty subset", result.Count)
	}

	index := store.LoadIndex()
	if len(index.Items) != result.Count {
		t.Errorf("Count %d disagrees with index size %d", result.Count, len(index.Items))
	}
	for _, item := range index.Items {
		if store.LoadPayload(item.ID) == nil {
			t.Errorf("imported entry %s unreadable", item.ID)
		}
	}
}

func TestImportQuotaTooSmallForAnything(t *testing.T) {
	data := exportedFixture(t, 2)

	store, _ := testutil.NewQuotaStore(t, 10, 10)
	result := Import(store, data)
	if result.OK {
		t.Fatalf("Import succeeded into a 10-byte quota: %+v", result)
	}
	if result.Reason != ReasonQuota {
		t.Errorf("reason = %s, want quota", result.Reason)
	}
}
