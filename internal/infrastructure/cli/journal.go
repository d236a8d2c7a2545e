package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the hash-chained operation journal",
}

var journalLimit int

var journalShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show journal events, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			events, err := s.Journal.Timeline()
			if err != nil {
				return MapError(fmt.Errorf("read journal: %w", err))
			}
			if journalLimit > 0 && len(events) > journalLimit {
				events = events[len(events)-journalLimit:]
			}
			if jsonOutput {
				return printJSON(cmd, events)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Journal is empty.")
				return nil
			}
			columns := []table.Column{
				{Title: "Time", Width: 19},
				{Title: "Action", Width: 20},
				{Title: "Actor", Width: 12},
				{Title: "Details", Width: 50},
			}
			rows := make([]table.Row, 0, len(events))
			for _, e := range events {
				rows = append(rows, table.Row{
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Action,
					truncate(e.Actor, 12),
					truncate(formatMetadata(e.Metadata), 50),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
			return nil
		})
	},
}

func formatMetadata(m map[string]interface{}) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, m[k]))
	}
	return strings.Join(parts, " ")
}

var journalVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the hash chain of the journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			violations, err := s.Journal.VerifyIntegrity()
			if err != nil {
				return MapError(fmt.Errorf("verify journal: %w", err))
			}
			if jsonOutput {
				if violations == nil {
					violations = []string{}
				}
				if err := printJSON(cmd, map[string]interface{}{"valid": len(violations) == 0, "violations": violations}); err != nil {
					return err
				}
			} else if len(violations) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Journal integrity verified."))
			} else {
				for _, v := range violations {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", warnStyle.Render("!"), v)
				}
			}
			if len(violations) > 0 {
				return NewCLIError(fmt.Sprintf("journal has %d integrity violation(s)", len(violations)), "The journal was edited outside riskaudit", nil)
			}
			return nil
		})
	},
}

func init() {
	journalShowCmd.Flags().IntVarP(&journalLimit, "limit", "n", 0, "Only show the last n events")
	journalCmd.AddCommand(journalShowCmd, journalVerifyCmd)
	RootCmd.AddCommand(journalCmd)
}
