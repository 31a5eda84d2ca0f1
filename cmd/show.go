package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/patch-vault/internal"
	"github.com/spf13/cobra"
)

var (
	showDiffOnly bool

	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62"))

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run in full",
	Long: `Show the full record of one run: metadata, diff, input, output, and the
system prompt it ran with. Accepts a full id or an unambiguous prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		id, err := resolveID(store, args[0])
		if err != nil {
			return err
		}

		payload := store.LoadPayload(id)
		if payload == nil {
			return fmt.Errorf("run %s cannot be opened (missing or corrupted)", id)
		}

		if showDiffOnly {
			fmt.Println(payload.DiffText)
			return nil
		}

		fmt.Println(sectionTitleStyle.Render("Run " + payload.ID))
		fmt.Println(fieldStyle.Render("When:      "), time.UnixMilli(payload.Timestamp).Format(time.RFC1123))
		fmt.Println(fieldStyle.Render("Model:     "), payload.Model)
		fmt.Println(fieldStyle.Render("Provider:  "), payload.Provider)
		fmt.Println(fieldStyle.Render("File:      "), payload.FileName)
		fmt.Println(fieldStyle.Render("Prompt:    "), payload.SystemPromptName)
		if payload.DurationMs != nil {
			fmt.Println(fieldStyle.Render("Duration:  "), fmt.Sprintf("%dms", *payload.DurationMs))
		}
		if payload.TokenCount != nil {
			fmt.Println(fieldStyle.Render("Tokens:    "), fmt.Sprintf("%d", *payload.TokenCount))
		}

		printSection := func(title, text string) {
			if text == "" {
				return
			}
			fmt.Println()
			fmt.Println(sectionTitleStyle.Render(title))
			fmt.Println(text)
		}
		printSection("Diff", payload.DiffText)
		printSection("Input", payload.InputText)
		printSection("Output", payload.OutputText)
		printSection("System Prompt", payload.SystemPromptContent)
		return nil
	},
}

// resolveID finds the record whose id matches arg exactly or by unique
// prefix.
func resolveID(store *internal.Store, arg string) (string, error) {
	index := store.LoadIndex()
	var matches []string
	for _, item := range index.Items {
		if item.ID == arg {
			return arg, nil
		}
		if strings.HasPrefix(item.ID, arg) {
			matches = append(matches, item.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no run with id %s", arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("id prefix %s is ambiguous (%d matches)", arg, len(matches))
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showDiffOnly, "diff", false, "Print only the diff text")
}
