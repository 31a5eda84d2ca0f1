package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/patch-vault/internal"
	"github.com/spf13/cobra"
)

var (
	addModel      string
	addProvider   string
	addPromptID   string
	addPromptName string
	addFileName   string
	addDiffFile   string
	addInputFile  string
	addOutputFile string
	addPromptFile string
	addDurationMs int64
	addTokens     int
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a patch-application run",
	Long: `Record one successful patch-application run in the history vault.

The diff, input, and output text are read from files. When the store is at
capacity or the substrate is out of room, the oldest entries are evicted to
make space.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		readOptional := func(path string) (string, error) {
			if path == "" {
				return "", nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("failed to read %s: %w", path, err)
			}
			return string(data), nil
		}

		diffText, err := readOptional(addDiffFile)
		if err != nil {
			return err
		}
		inputText, err := readOptional(addInputFile)
		if err != nil {
			return err
		}
		outputText, err := readOptional(addOutputFile)
		if err != nil {
			return err
		}
		promptContent, err := readOptional(addPromptFile)
		if err != nil {
			return err
		}

		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		fields := internal.AddFields{
			Model:               addModel,
			Provider:            addProvider,
			SystemPromptID:      addPromptID,
			SystemPromptName:    addPromptName,
			FileName:            addFileName,
			DiffText:            diffText,
			InputText:           inputText,
			OutputText:          outputText,
			SystemPromptContent: promptContent,
		}
		if cmd.Flags().Changed("duration-ms") {
			fields.DurationMs = &addDurationMs
		}
		if cmd.Flags().Changed("tokens") {
			fields.TokenCount = &addTokens
		}

		id, err := store.AddEntry(fields)
		if err != nil {
			return fmt.Errorf("failed to record run: %w", err)
		}

		fmt.Printf("Recorded %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addModel, "model", "", "Model that produced the patch")
	addCmd.Flags().StringVar(&addProvider, "provider", "", "Provider serving the model")
	addCmd.Flags().StringVar(&addPromptID, "prompt-id", "", "System prompt id")
	addCmd.Flags().StringVar(&addPromptName, "prompt-name", "", "System prompt name")
	addCmd.Flags().StringVar(&addFileName, "file-name", "", "Name of the patched file")
	addCmd.Flags().StringVar(&addDiffFile, "diff-file", "", "File holding the applied diff")
	addCmd.Flags().StringVar(&addInputFile, "input-file", "", "File holding the input text")
	addCmd.Flags().StringVar(&addOutputFile, "output-file", "", "File holding the output text")
	addCmd.Flags().StringVar(&addPromptFile, "prompt-file", "", "File holding the system prompt content")
	addCmd.Flags().Int64Var(&addDurationMs, "duration-ms", 0, "Run duration in milliseconds")
	addCmd.Flags().IntVar(&addTokens, "tokens", 0, "Token count of the run")
}
