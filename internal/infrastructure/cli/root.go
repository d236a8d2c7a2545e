package cli

import (
	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/riskaudit/internal/infrastructure/mcp"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	// workspacePath overrides the working directory as the workspace root.
	workspacePath string
	// jsonOutput switches every command from tables to indented JSON.
	jsonOutput bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "riskaudit",
	Version: Version,
	Short:   "Risk-driven audit planning for hierarchical requirement catalogs",
	Long: `riskaudit keeps catalogs of hierarchical audit requirements, scores every
requirement by risk and proposes what to audit in the next sprint.

A typical cycle:
1. Import a catalog (riskaudit catalog import controls.csv)
2. Score it for the current sprint (riskaudit risk calc --sprint 5)
3. Pick the audit scope (riskaudit select <catalog-id>)
4. Plan and close the sprint (riskaudit sprint start, sprint add, audit mark)`,
	SilenceUsage: true,
}

// Execute runs the root command. Build metadata set through ldflags is
// handed to the MCP server so clients see the same version.
func Execute() error {
	inframcp.Version, inframcp.BuildCommit, inframcp.BuildDate = Version, Commit, Date
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&workspacePath, "workspace", "w", "", "Workspace root (defaults to the current directory)")
	RootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}
