package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearForce bool

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded runs",
	Long:  `Remove every recorded run and the history index. This cannot be undone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearForce {
			return fmt.Errorf("refusing to clear without --force")
		}

		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		count := len(store.LoadIndex().Items)
		if err := store.ClearAll(); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}

		fmt.Printf("Removed %d run(s).\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearForce, "force", false, "Actually clear the store")
}
