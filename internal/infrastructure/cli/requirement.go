package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/catalog"
)

var requirementCmd = &cobra.Command{
	Use:     "requirement",
	Aliases: []string{"req"},
	Short:   "Look up and edit individual requirements",
}

var requirementShowCmd = &cobra.Command{
	Use:   "show <id>...",
	Short: "Show requirements by id across all catalogs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			found, err := s.Catalog.RequirementsByIDs(cmd.Context(), args)
			if err != nil {
				return MapError(fmt.Errorf("lookup requirements: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, found)
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No matching requirements.")
				return nil
			}
			reqs := make([]catalog.Requirement, 0, len(found))
			for _, l := range found {
				reqs = append(reqs, l.Requirement)
			}
			fmt.Fprintln(cmd.OutOrStdout(), requirementTable(reqs))
			return nil
		})
	},
}

var (
	requirementHeading   string
	requirementText      string
	requirementImportant int
)

var requirementUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Rewrite heading, text and importance of a requirement in every catalog holding it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			found, err := s.Catalog.RequirementsByIDs(cmd.Context(), args)
			if err != nil {
				return MapError(fmt.Errorf("lookup requirement: %w", err))
			}
			if len(found) == 0 {
				return MapError(fmt.Errorf("%s: %w", args[0], catalog.ErrRequirementNotFound))
			}
			current := found[0].Requirement
			heading, text, important := current.Heading, current.Text, current.Important
			if cmd.Flags().Changed("heading") {
				heading = requirementHeading
			}
			if cmd.Flags().Changed("text") {
				text = requirementText
			}
			if cmd.Flags().Changed("important") {
				important = requirementImportant
			}
			if err := s.Catalog.UpdateRequirement(cmd.Context(), args[0], heading, text, important); err != nil {
				return MapError(fmt.Errorf("update requirement: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated requirement %s\n", args[0])
			return nil
		})
	},
}

var requirementDeleteCmd = &cobra.Command{
	Use:   "delete <catalog-id> <id>",
	Short: "Delete a requirement and its descendants from a catalog",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			removed, err := s.Catalog.DeleteRequirement(cmd.Context(), args[0], args[1])
			if err != nil {
				return MapError(fmt.Errorf("delete requirement: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, map[string]interface{}{"removed": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d requirement(s): %v\n", len(removed), removed)
			return nil
		})
	},
}

var requirementPointsCmd = &cobra.Command{
	Use:   "points <id> <story-points>",
	Short: "Override the story points of a requirement",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := strconv.Atoi(args[1])
		if err != nil {
			return NewCLIError("story points must be an integer", "Pass a whole number such as 5", err)
		}
		return withServices(func(s *wiring.AppServices) error {
			if err := s.Sprint.UpdateStoryPoints(cmd.Context(), args[0], points); err != nil {
				return MapError(fmt.Errorf("update story points: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requirement %s now has %d story points\n", args[0], points)
			return nil
		})
	},
}

func init() {
	requirementUpdateCmd.Flags().StringVar(&requirementHeading, "heading", "", "New heading")
	requirementUpdateCmd.Flags().StringVar(&requirementText, "text", "", "New text; empty text turns the requirement into a container")
	requirementUpdateCmd.Flags().IntVar(&requirementImportant, "important", 0, "New importance (1-100)")

	requirementCmd.AddCommand(requirementShowCmd, requirementUpdateCmd, requirementDeleteCmd, requirementPointsCmd)
	RootCmd.AddCommand(requirementCmd)
}
