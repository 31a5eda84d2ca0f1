package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/patch-vault/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	configPath  string
	historyMax  int
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "patch-vault",
	Short: "Local history vault for AI patch-application runs",
	Long: `patch-vault owns the local history of an AI diff-patching tool.

Every successful patch-application run is recorded as a compressed entry in a
quota-bounded store, and the whole store can be exported to a portable ZIP
file and imported again later, possibly on another machine.

Quick Start:
  patch-vault list                       # List recorded runs
  patch-vault show <id>                  # View one run in full
  patch-vault export -o history.zip      # Export the store
  patch-vault import history.zip         # Replace the store from a file`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Custom vault database location")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Custom config file location")
	rootCmd.PersistentFlags().IntVar(&historyMax, "history-max", 0, "Override the history capacity ceiling")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openStore wires config, storage location, and the SQLite substrate into a
// ready Store. The returned closer releases the database.
func openStore() (*internal.Store, func(), error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if historyMax > 0 {
		cfg.HistoryMax = historyMax
	}

	dbPath, err := internal.ResolveStoragePath(storagePath, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve storage path: %w", err)
	}

	sub, err := internal.OpenSQLiteSubstrate(dbPath, cfg.QuotaBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open vault database: %w", err)
	}

	closer := func() {
		if err := sub.Close(); err != nil {
			internal.LogWarn("Failed to close vault database: %v", err)
		}
	}
	return internal.NewStore(sub, cfg.HistoryMax), closer, nil
}
