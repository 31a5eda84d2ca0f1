package cmd

import (
	"fmt"
	"time"

	"github.com/iksnae/patch-vault/internal/export"
	"github.com/spf13/cobra"
)

var exportOutput string

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the history store to a portable ZIP file",
	Long: `Export the complete history store to a single ZIP file that any standard
unzip tool can open and a later import can restore, possibly on another
machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		data, err := export.Export(store, time.Now())
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		result := export.FileSaver{}.Save(exportOutput, data)
		switch {
		case result.OK:
			count := len(store.LoadIndex().Items)
			fmt.Printf("Exported %d run(s) to %s (%d bytes)\n", count, exportOutput, len(data))
			return nil
		case result.Canceled:
			fmt.Println("Export canceled.")
			return nil
		default:
			return fmt.Errorf("export failed: %s", result.Reason)
		}
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "patch-vault-export.zip", "Output file path")
}
