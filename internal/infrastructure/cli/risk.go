package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

var riskCmd = &cobra.Command{
	Use:   "risk",
	Short: "Score requirements and rank them by risk",
}

var (
	riskSprint  int
	riskCatalog string
)

var riskCalcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Recalculate risk for one catalog, or for every catalog when --catalog is omitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			if riskCatalog != "" {
				c, err := s.Risk.ByCatalog(cmd.Context(), riskCatalog, riskSprint)
				if err != nil {
					return MapError(fmt.Errorf("calculate risk: %w", err))
				}
				if jsonOutput {
					return printJSON(cmd, c)
				}
				printTitle(cmd, "%s at sprint %d", c.Title, riskSprint)
				fmt.Fprintln(cmd.OutOrStdout(), requirementTable(c.Requirements))
				return nil
			}

			updated, err := s.Risk.AllCatalogs(cmd.Context(), riskSprint)
			if err != nil {
				return MapError(fmt.Errorf("calculate risk: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, map[string]interface{}{"updated_catalogs": updated})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recalculated %d catalog(s) at sprint %d\n", len(updated), riskSprint)
			return nil
		})
	},
}

var riskAvoid []string

var riskRankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank every eligible requirement across catalogs by risk",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			ranked, err := s.Selection.AcrossCatalogs(cmd.Context(), riskAvoid)
			if err != nil {
				return MapError(fmt.Errorf("rank requirements: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, ranked)
			}
			printTitle(cmd, "Eligible requirements (%d)", len(ranked))
			fmt.Fprintln(cmd.OutOrStdout(), rankingTable(ranked))
			return nil
		})
	},
}

var selectAvoid []string

var selectCmd = &cobra.Command{
	Use:   "select <catalog-id>",
	Short: "Propose the highest-risk eligible requirements of a catalog for audit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			p, err := s.Selection.ForCatalog(cmd.Context(), args[0], selectAvoid)
			if err != nil {
				return MapError(fmt.Errorf("select requirements: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, map[string]interface{}{
					"selected_requirements": p.Selected,
					"total_requirements":    p.TotalEligible,
				})
			}
			printTitle(cmd, "Proposed %d of %d eligible requirements", len(p.Selected), p.TotalEligible)
			fmt.Fprintln(cmd.OutOrStdout(), rankingTable(p.Selected))
			return nil
		})
	},
}

func rankingTable(reqs []catalog.Requirement) string {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "ID", Width: 20},
		{Title: "Catalog", Width: 20},
		{Title: "Section", Width: 10},
		{Title: "Risk", Width: 7},
		{Title: "Heading", Width: 30},
	}
	rows := make([]table.Row, 0, len(reqs))
	for i, r := range reqs {
		heading := r.Heading
		if heading == "" {
			heading = r.Text
		}
		rows = append(rows, table.Row{
			strconv.Itoa(i + 1),
			truncate(r.ID, 20),
			truncate(r.CatalogTitle, 20),
			r.Section,
			formatRisk(r.Risk),
			truncate(strings.TrimSpace(heading), 30),
		})
	}
	return renderTable(columns, rows)
}

func init() {
	riskCalcCmd.Flags().IntVarP(&riskSprint, "sprint", "s", 0, "Current sprint number used for freshness")
	riskCalcCmd.Flags().StringVarP(&riskCatalog, "catalog", "c", "", "Only recalculate this catalog")
	riskRankCmd.Flags().StringSliceVar(&riskAvoid, "avoid", nil, "Requirement ids to leave out")
	selectCmd.Flags().StringSliceVar(&selectAvoid, "avoid", nil, "Requirement ids to leave out")

	riskCmd.AddCommand(riskCalcCmd, riskRankCmd)
	RootCmd.AddCommand(riskCmd, selectCmd)
}
