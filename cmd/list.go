package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs",
	Long:  `List the recorded patch-application runs, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closer, err := openStore()
		if err != nil {
			return err
		}
		defer closer()

		index := store.LoadIndex()
		if len(index.Items) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Recorded runs (%s)",
			countStyle.Render(fmt.Sprintf("%d", len(index.Items))))))
		fmt.Println()

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tMODEL\tPROVIDER\tFILE")
		for _, item := range index.Items {
			when := time.UnixMilli(item.Timestamp).Format("2006-01-02 15:04")
			name := item.FileName
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				idStyle.Render(shortID(item.ID)),
				dateStyle.Render(when),
				titleStyle.Render(item.Model),
				item.Provider,
				name)
		}
		return w.Flush()
	},
}

// shortID truncates a uuid for display; full ids still work everywhere an id
// is accepted.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(listCmd)
}
