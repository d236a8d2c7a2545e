package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Record completed audits",
}

var auditSprint int

var auditMarkCmd = &cobra.Command{
	Use:   "mark <id>...",
	Short: "Mark requirements as audited in a sprint",
	Long: `Mark requirements as audited in a sprint. Every catalog holding an id gets
its audit counter incremented and its last audit sprint set. The snapshot of
the sprint is updated too while the sprint is still active.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			n, err := s.Audit.MarkAsAudited(cmd.Context(), args, auditSprint)
			if err != nil {
				return MapError(fmt.Errorf("mark audited: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, map[string]interface{}{"updated_count": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d requirement(s) as audited in sprint %d\n", n, auditSprint)
			return nil
		})
	},
}

func init() {
	auditMarkCmd.Flags().IntVarP(&auditSprint, "sprint", "s", 0, "Sprint in which the audit happened")
	_ = auditMarkCmd.MarkFlagRequired("sprint")

	auditCmd.AddCommand(auditMarkCmd)
	RootCmd.AddCommand(auditCmd)
}
