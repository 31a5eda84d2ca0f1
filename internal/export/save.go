package export

import (
	"fmt"
	"os"
)

// SaveResult reports the outcome of handing export bytes to the host's
// save-to-disk collaborator.
type SaveResult struct {
	OK       bool
	Canceled bool
	Reason   string
}

// Saver is the host collaborator that lands export bytes somewhere durable.
// The desktop host shows a file dialog; the CLI writes directly.
type Saver interface {
	Save(filename string, data []byte) SaveResult
}

// FileSaver writes export archives straight to the filesystem
type FileSaver struct{}

// Save writes data to filename
func (FileSaver) Save(filename string, data []byte) SaveResult {
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return SaveResult{Reason: fmt.Sprintf("write failed: %v", err)}
	}
	return SaveResult{OK: true}
}
