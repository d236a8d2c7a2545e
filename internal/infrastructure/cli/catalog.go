package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"catalogs"},
	Short:   "Import, inspect and delete requirement catalogs",
}

var catalogImportName string

var catalogImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a catalog from a .csv, .json, .yaml or .yml file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			res, err := s.Catalog.ImportFile(cmd.Context(), args[0], catalogImportName)
			if err != nil {
				return MapError(fmt.Errorf("import %s: %w", args[0], err))
			}
			if jsonOutput {
				return printJSON(cmd, res)
			}
			printImportResult(cmd, res)
			return nil
		})
	},
}

func printImportResult(cmd *cobra.Command, res *application.ImportResult) {
	out := cmd.OutOrStdout()
	if res.CatalogID == "" {
		fmt.Fprintln(out, warnStyle.Render("Nothing imported."))
	} else {
		fmt.Fprintf(out, "Imported %d of %d requirements into catalog %s\n", res.Success, res.Total, res.CatalogID)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %s %s\n", warnStyle.Render("!"), e.Error())
	}
}

var (
	catalogCreatePrefix      string
	catalogCreateDescription string
	catalogCreateUser        string
)

var catalogCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create an empty catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			c, err := s.Catalog.Create(cmd.Context(), catalogCreateUser, args[0], catalogCreateDescription, catalogCreatePrefix)
			if err != nil {
				return MapError(fmt.Errorf("create catalog: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, c)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created catalog %s (%s)\n", c.ID, c.Title)
			return nil
		})
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			list, err := s.Catalog.List(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("list catalogs: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, list)
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No catalogs yet. Import one with 'riskaudit catalog import <file>'.")
				return nil
			}
			columns := []table.Column{
				{Title: "ID", Width: 36},
				{Title: "Title", Width: 30},
				{Title: "Prefix", Width: 8},
				{Title: "Reqs", Width: 6},
				{Title: "Updated", Width: 16},
			}
			rows := make([]table.Row, 0, len(list))
			for _, c := range list {
				rows = append(rows, table.Row{
					c.ID,
					truncate(c.Title, 30),
					c.Prefix,
					strconv.Itoa(c.RequirementCount),
					c.UpdatedAt.Format("2006-01-02 15:04"),
				})
			}
			printTitle(cmd, "Catalogs (%d)", len(list))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
			return nil
		})
	},
}

var catalogShowCmd = &cobra.Command{
	Use:   "show <catalog-id>",
	Short: "Show the requirements of a catalog in stored order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			c, err := s.Catalog.Get(cmd.Context(), args[0])
			if err != nil {
				return MapError(fmt.Errorf("show catalog: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, c)
			}
			printTitle(cmd, "%s (%d requirements)", c.Title, len(c.Requirements))
			if c.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), c.Description)
			}
			fmt.Fprintln(cmd.OutOrStdout(), requirementTable(c.Requirements))
			return nil
		})
	},
}

func requirementTable(reqs []catalog.Requirement) string {
	columns := []table.Column{
		{Title: "ID", Width: 20},
		{Title: "Section", Width: 10},
		{Title: "Heading", Width: 30},
		{Title: "Imp", Width: 4},
		{Title: "Risk", Width: 7},
		{Title: "Audits", Width: 6},
		{Title: "Last", Width: 5},
		{Title: "Effort", Width: 6},
	}
	rows := make([]table.Row, 0, len(reqs))
	for _, r := range reqs {
		heading := r.Heading
		if heading == "" {
			heading = r.Text
		}
		imp := strconv.Itoa(r.Important)
		if r.IsContainer {
			imp = "-"
		}
		rows = append(rows, table.Row{
			truncate(r.ID, 20),
			r.Section,
			truncate(heading, 30),
			imp,
			formatRisk(r.Risk),
			strconv.Itoa(r.NAudit),
			formatOptional(r.LastAuditSprint),
			formatOptional(r.Effort),
		})
	}
	return renderTable(columns, rows)
}

var catalogTreeCmd = &cobra.Command{
	Use:   "tree <catalog-id>",
	Short: "Print the requirement hierarchy of a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			tree, err := s.Catalog.Hierarchy(cmd.Context(), args[0])
			if err != nil {
				return MapError(fmt.Errorf("catalog tree: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, tree)
			}
			var b strings.Builder
			for _, n := range tree {
				writeTree(&b, n, 0)
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		})
	},
}

func writeTree(b *strings.Builder, n *catalog.TreeNode, depth int) {
	label := n.Heading
	if label == "" {
		label = truncate(n.Text, 60)
	}
	b.WriteString(strings.Repeat("  ", depth))
	if n.IsContainer {
		fmt.Fprintf(b, "%s %s [%s]\n", n.Section, label, n.ID)
	} else {
		fmt.Fprintf(b, "%s %s [%s] risk=%s\n", n.Section, label, n.ID, formatRisk(n.Risk))
	}
	for _, c := range n.Children {
		writeTree(b, c, depth+1)
	}
}

var catalogDeleteCmd = &cobra.Command{
	Use:   "delete <catalog-id>",
	Short: "Delete a catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			if err := s.Catalog.Delete(cmd.Context(), args[0]); err != nil {
				return MapError(fmt.Errorf("delete catalog: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted catalog %s\n", args[0])
			return nil
		})
	},
}

func init() {
	catalogImportCmd.Flags().StringVarP(&catalogImportName, "name", "n", "", "Catalog name (defaults to the document name or file name)")
	catalogCreateCmd.Flags().StringVar(&catalogCreatePrefix, "prefix", "", "Requirement id prefix")
	catalogCreateCmd.Flags().StringVar(&catalogCreateDescription, "description", "", "Catalog description")
	catalogCreateCmd.Flags().StringVar(&catalogCreateUser, "user", "", "Owner of the catalog")

	catalogCmd.AddCommand(catalogImportCmd, catalogCreateCmd, catalogListCmd, catalogShowCmd, catalogTreeCmd, catalogDeleteCmd)
	RootCmd.AddCommand(catalogCmd)
}
