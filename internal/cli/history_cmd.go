package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alanmeadows/prwright/internal/history"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var historyJSONFlag bool

func init() {
	historyCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "Output entries as JSON")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent change requests",
	Long: `Display the most recent change requests, newest first, with their
status and the pull request they produced.`,
	Example: `  prwright history
  prwright history --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := newHistoryStore(appConfig).List()
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}
		if historyJSONFlag {
			if entries == nil {
				entries = []history.Entry{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		renderHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func renderHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No requests yet.")
		return
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		result := e.PR
		if result == "" {
			result = e.Message
		}
		rows = append(rows, []string{e.RequestTime, e.Status, e.ShortPrompt, result})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("REQUESTED", "STATUS", "PROMPT", "RESULT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	fmt.Fprintln(w, t)
}
