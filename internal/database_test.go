package internal

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func openTempSubstrate(t *testing.T, quota int64) (*SQLiteSubstrate, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vault.db")
	sub, err := OpenSQLiteSubstrate(path, quota)
	if err != nil {
		t.Fatalf("OpenSQLiteSubstrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sub.Close() })
	return sub, path
}

func TestSQLiteSubstrateBasics(t *testing.T) {
	sub, _ := openTempSubstrate(t, 0)

	if _, ok, err := sub.Get("missing"); ok || err != nil {
		t.Errorf("Get on fresh db = (ok=%v, err=%v)", ok, err)
	}

	if err := sub.Set("k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := sub.Set("k", "v2"); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, ok, err := sub.Get("k")
	if err != nil || !ok || value != "v2" {
		t.Errorf("Get = (%q, %v, %v), want (v2, true, nil)", value, ok, err)
	}

	if err := sub.Remove("k"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, ok, _ := sub.Get("k"); ok {
		t.Error("value survived Remove")
	}
	if err := sub.Remove("k"); err != nil {
		t.Errorf("removing an absent key should be a no-op, got %v", err)
	}
}

func TestSQLiteSubstratePersistsAcrossReopen(t *testing.T) {
	sub, path := openTempSubstrate(t, 0)
	if err := sub.Set("durable", "value"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := OpenSQLiteSubstrate(path, 0)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	value, ok, err := reopened.Get("durable")
	if err != nil || !ok || value != "value" {
		t.Errorf("Get after reopen = (%q, %v, %v)", value, ok, err)
	}
}

func TestSQLiteSubstrateQuota(t *testing.T) {
	sub, _ := openTempSubstrate(t, 50)

	if err := sub.Set("small", "fits"); err != nil {
		t.Fatalf("Set under quota failed: %v", err)
	}

	err := sub.Set("big", strings.Repeat("x", 100))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("over-quota Set got %v, want ErrQuotaExceeded", err)
	}
	var subErr *SubstrateError
	if !errors.As(err, &subErr) || subErr.Op != "set" {
		t.Errorf("quota failure should be a SubstrateError with op set, got %v", err)
	}
	if _, ok, _ := sub.Get("big"); ok {
		t.Error("rejected write left a value behind")
	}

	// Overwrites are charged only for the new value.
	if err := sub.Set("small", "still fits here"); err != nil {
		t.Errorf("same-key overwrite under quota failed: %v", err)
	}
}

func TestStoreOnSQLiteSubstrate(t *testing.T) {
	sub, _ := openTempSubstrate(t, 0)
	store := NewStore(sub, 3)

	ids := fillStore(t, store, 4)

	index := store.LoadIndex()
	if len(index.Items) != 3 {
		t.Fatalf("index holds %d items, want 3", len(index.Items))
	}
	if store.LoadPayload(ids[0]) != nil {
		t.Error("evicted record still loadable from sqlite")
	}
	for _, item := range index.Items {
		if store.LoadPayload(item.ID) == nil {
			t.Errorf("entry %s unreadable from sqlite", item.ID)
		}
	}
}
