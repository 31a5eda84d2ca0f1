package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/patch-vault/internal/export"
	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the history store from an exported ZIP file",
	Long: `Import a previously exported ZIP file, wholesale replacing the current
history store. The existing store is cleared before the imported records are
written; if the imported set does not fit the storage quota it is trimmed
from the oldest end.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		result := export.Import(store, data)
		if !result.OK {
			return fmt.Errorf("import failed: %s", describeReason(result.Reason))
		}

		fmt.Printf("Imported %d run(s) from %s\n", result.Count, args[0])
		return nil
	},
}

// describeReason maps a typed failure code to a user-facing message
func describeReason(reason export.Reason) string {
	switch reason {
	case export.ReasonZipInvalid:
		return "the file is not a valid ZIP archive"
	case export.ReasonMissingFiles:
		return "the archive is missing required files"
	case export.ReasonNotOurs:
		return "the archive was not produced by patch-vault"
	case export.ReasonBadIndex:
		return "the archive's history index is malformed"
	case export.ReasonBadItems:
		return "the archive's history items are malformed"
	case export.ReasonQuota:
		return "the storage quota could not fit any of the imported records"
	case export.ReasonIndexSaveFailed:
		return "the imported index could not be saved"
	case export.ReasonStoreFailed:
		return "the imported records could not be written"
	default:
		return string(reason)
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
}
