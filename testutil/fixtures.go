package testutil

import (
	"fmt"
	"testing"

	"github.com/iksnae/patch-vault/internal"
)

// NewStore creates a Store over an unbounded in-memory substrate
func NewStore(t *testing.T, max int) (*internal.Store, *internal.MemorySubstrate) {
	t.Helper()
	sub := internal.NewMemorySubstrate(0)
	return internal.NewStore(sub, max), sub
}

// NewQuotaStore creates a Store over an in-memory substrate capped at quota
// bytes.
func NewQuotaStore(t *testing.T, max, quota int) (*internal.Store, *internal.MemorySubstrate) {
	t.Helper()
	sub := internal.NewMemorySubstrate(quota)
	return internal.NewStore(sub, max), sub
}

// SampleFields returns AddFields for the n-th sample run. Timestamps ascend
// with n so eviction order is deterministic.
func SampleFields(n int) internal.AddFields {
	return internal.AddFields{
		Timestamp:        int64(1700000000000 + n*1000),
		Model:            fmt.Sprintf("model-%d", n),
		Provider:         "testprovider",
		SystemPromptID:   "prompt-1",
		SystemPromptName: "Default",
		FileName:         fmt.Sprintf("file%d.go", n),
		DiffText:         fmt.Sprintf("--- a/file%d.go\n+++ b/file%d.go\n@@ -1 +1 @@\n-old\n+new\n", n, n),
		InputText:        fmt.Sprintf("input %d", n),
		OutputText:       fmt.Sprintf("output %d", n),
	}
}

// FillStore adds count sample runs and returns their ids, oldest first
func FillStore(t *testing.T, store *internal.Store, count int) []string {
	t.Helper()
	ids := make([]string, 0, count)
	for i := 0; i < count; i++ {
		id, err := store.AddEntry(SampleFields(i))
		if err != nil {
			t.Fatalf("Failed to add sample entry %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}
