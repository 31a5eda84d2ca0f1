package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/patch-vault/internal"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check the vault database and the index/payload pairing",
	Long: `Check the health of the history vault by verifying:
  • Storage path resolution and database access
  • Index readability
  • That every index entry has a readable payload

Useful for debugging storage issues before an export.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("patch-vault health check"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 1: Opening vault database..."))
		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()
		fmt.Println(successStyle.Render("✅ Database opened"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 2: Reading history index..."))
		index := store.LoadIndex()
		fmt.Println(successStyle.Render(fmt.Sprintf("✅ Index holds %d run(s)", len(index.Items))))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 3: Verifying payloads..."))
		corrupt := 0
		for _, item := range index.Items {
			if store.LoadPayload(item.ID) == nil {
				corrupt++
				internal.LogWarn("Run %s has no readable payload", item.ID)
			}
		}
		if corrupt == 0 {
			fmt.Println(successStyle.Render("✅ Every run has a readable payload"))
		} else {
			fmt.Println(warningStyle.Render(fmt.Sprintf("⚠️  %d run(s) cannot be opened", corrupt)))
			fmt.Println("   These runs will be skipped by list, show, and export.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
