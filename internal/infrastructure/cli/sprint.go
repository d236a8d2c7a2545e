package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
	"github.com/felixgeelhaar/riskaudit/pkg/domain/sprint"
)

var sprintCmd = &cobra.Command{
	Use:     "sprint",
	Aliases: []string{"sprints"},
	Short:   "Plan audit sprints and their capacity",
}

// sprintFlags are the parameter flags shared by start, next and modify.
type sprintFlags struct {
	capacity int
	points   int
	team     int
	duration int
	project  string
}

func (f *sprintFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.capacity, "capacity", 0, "Capacity in story points")
	fs.IntVar(&f.points, "points", 0, "Default story points per requirement")
	fs.IntVar(&f.team, "team", 0, "Team size")
	fs.IntVar(&f.duration, "duration", 0, "Duration in days")
	fs.StringVar(&f.project, "project", "", "Project the sprint belongs to")
}

func (f *sprintFlags) params() sprint.Params {
	return sprint.Params{
		Capacity:             f.capacity,
		PointsPerRequirement: f.points,
		TeamSize:             f.team,
		Duration:             f.duration,
		ProjectName:          f.project,
	}
}

// updates keeps only the flags set on the command line.
func (f *sprintFlags) updates(fs *pflag.FlagSet) sprint.Updates {
	var u sprint.Updates
	if fs.Changed("capacity") {
		u.Capacity = &f.capacity
	}
	if fs.Changed("points") {
		u.PointsPerRequirement = &f.points
	}
	if fs.Changed("team") {
		u.TeamSize = &f.team
	}
	if fs.Changed("duration") {
		u.Duration = &f.duration
	}
	if fs.Changed("project") {
		u.ProjectName = &f.project
	}
	return u
}

func anyChanged(fs *pflag.FlagSet, names ...string) bool {
	for _, name := range names {
		if fs.Changed(name) {
			return true
		}
	}
	return false
}

var (
	sprintStartFlags  sprintFlags
	sprintNextFlags   sprintFlags
	sprintModifyFlags sprintFlags
	sprintConfigFlags sprintFlags
	sprintConfigLast  int
)

func parseSprintNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, NewCLIError(fmt.Sprintf("invalid sprint number %q", arg), "Sprint numbers are positive integers", err)
	}
	return n, nil
}

func printSprint(cmd *cobra.Command, sp *sprint.Sprint) error {
	view := application.ViewOf(sp)
	if jsonOutput {
		return printJSON(cmd, view)
	}
	out := cmd.OutOrStdout()
	state := sp.Status()
	if sp.IsActive {
		state = okStyle.Render(state)
	}
	printTitle(cmd, "Sprint %d (%s)", sp.Number, state)
	if sp.ProjectName != "" {
		fmt.Fprintf(out, "Project:   %s\n", sp.ProjectName)
	}
	usage := fmt.Sprintf("%d/%d points (%.0f%%)", view.PointsUsed, sp.Capacity, view.CapacityUsage*100)
	if view.OverCapacity {
		usage = warnStyle.Render(usage + " over capacity")
	}
	fmt.Fprintf(out, "Capacity:  %s\n", usage)
	fmt.Fprintf(out, "Team:      %d people, %d days, %d points per requirement\n", sp.TeamSize, sp.Duration, sp.PointsPerRequirement)
	if len(sp.Requirements) == 0 {
		fmt.Fprintln(out, "No requirements yet.")
		return nil
	}

	columns := []table.Column{
		{Title: "ID", Width: 20},
		{Title: "Heading", Width: 30},
		{Title: "Risk", Width: 7},
		{Title: "Points", Width: 6},
		{Title: "Audits", Width: 6},
		{Title: "Issue", Width: 12},
	}
	rows := make([]table.Row, 0, len(sp.Requirements))
	for _, e := range sp.Requirements {
		heading := e.Heading
		if heading == "" {
			heading = e.Text
		}
		issue := e.IssueKey
		if issue == "" {
			issue = "-"
		}
		rows = append(rows, table.Row{
			truncate(e.ID, 20),
			truncate(heading, 30),
			formatRisk(e.Risk),
			strconv.Itoa(e.Effort),
			strconv.Itoa(e.NAudit),
			issue,
		})
	}
	fmt.Fprintln(out, renderTable(columns, rows))
	return nil
}

var sprintStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the next sprint; unset parameters use the sprint configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			sp, err := s.Sprint.Start(cmd.Context(), sprintStartFlags.params())
			if err != nil {
				return MapError(fmt.Errorf("start sprint: %w", err))
			}
			return printSprint(cmd, sp)
		})
	},
}

var sprintNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Close the active sprint and start the following one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			sp, err := s.Sprint.Next(cmd.Context(), sprintNextFlags.params())
			if err != nil {
				return MapError(fmt.Errorf("next sprint: %w", err))
			}
			return printSprint(cmd, sp)
		})
	},
}

var sprintCloseCmd = &cobra.Command{
	Use:   "close <number>",
	Short: "Close a sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseSprintNumber(args[0])
		if err != nil {
			return err
		}
		return withServices(func(s *wiring.AppServices) error {
			sp, err := s.Sprint.Close(cmd.Context(), n)
			if err != nil {
				return MapError(fmt.Errorf("close sprint: %w", err))
			}
			return printSprint(cmd, sp)
		})
	},
}

var sprintShowCmd = &cobra.Command{
	Use:   "show [number]",
	Short: "Show a sprint, or the active sprint when no number is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			var (
				sp  *sprint.Sprint
				err error
			)
			if len(args) == 0 {
				sp, err = s.Sprint.Active(cmd.Context())
			} else {
				n, perr := parseSprintNumber(args[0])
				if perr != nil {
					return perr
				}
				sp, err = s.Sprint.Get(cmd.Context(), n)
			}
			if err != nil {
				return MapError(fmt.Errorf("show sprint: %w", err))
			}
			return printSprint(cmd, sp)
		})
	},
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sprints",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			all, err := s.Sprint.List(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("list sprints: %w", err))
			}
			views := make([]application.SprintView, 0, len(all))
			for _, sp := range all {
				views = append(views, application.ViewOf(sp))
			}
			if jsonOutput {
				return printJSON(cmd, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sprints yet. Start one with 'riskaudit sprint start'.")
				return nil
			}
			columns := []table.Column{
				{Title: "Sprint", Width: 6},
				{Title: "Status", Width: 8},
				{Title: "Project", Width: 20},
				{Title: "Reqs", Width: 5},
				{Title: "Points", Width: 10},
				{Title: "Usage", Width: 7},
			}
			rows := make([]table.Row, 0, len(views))
			for _, v := range views {
				rows = append(rows, table.Row{
					strconv.Itoa(v.Number),
					v.Status(),
					truncate(v.ProjectName, 20),
					strconv.Itoa(len(v.Requirements)),
					fmt.Sprintf("%d/%d", v.PointsUsed, v.Capacity),
					fmt.Sprintf("%.0f%%", v.CapacityUsage*100),
				})
			}
			printTitle(cmd, "Sprints (%d)", len(views))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(columns, rows))
			return nil
		})
	},
}

var sprintAddCmd = &cobra.Command{
	Use:   "add <number> <id>...",
	Short: "Snapshot requirements into an active sprint",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseSprintNumber(args[0])
		if err != nil {
			return err
		}
		return withServices(func(s *wiring.AppServices) error {
			res, err := s.Sprint.AddRequirements(cmd.Context(), n, args[1:])
			if err != nil {
				return MapError(fmt.Errorf("add to sprint: %w", err))
			}
			if jsonOutput {
				return printJSON(cmd, res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %d requirement(s) to sprint %d\n", len(res.Added), n)
			for id, msg := range res.TrackerErrors {
				fmt.Fprintf(out, "  %s issue for %s not created: %s\n", warnStyle.Render("!"), id, msg)
			}
			if res.Sprint.OverCapacity {
				fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Sprint %d is over capacity: %d/%d points", n, res.Sprint.PointsUsed, res.Sprint.Capacity)))
			}
			return nil
		})
	},
}

var sprintRemoveCmd = &cobra.Command{
	Use:   "remove <number> <id>",
	Short: "Remove a requirement from an active sprint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseSprintNumber(args[0])
		if err != nil {
			return err
		}
		return withServices(func(s *wiring.AppServices) error {
			if err := s.Sprint.RemoveRequirement(cmd.Context(), n, args[1]); err != nil {
				return MapError(fmt.Errorf("remove from sprint: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from sprint %d\n", args[1], n)
			return nil
		})
	},
}

var sprintModifyCmd = &cobra.Command{
	Use:   "modify <number>",
	Short: "Change the parameters of an active sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := parseSprintNumber(args[0])
		if err != nil {
			return err
		}
		return withServices(func(s *wiring.AppServices) error {
			sp, err := s.Sprint.Modify(cmd.Context(), n, sprintModifyFlags.updates(cmd.Flags()))
			if err != nil {
				return MapError(fmt.Errorf("modify sprint: %w", err))
			}
			return printSprint(cmd, sp)
		})
	},
}

var sprintConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the default sprint configuration, or update it with flags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			cfg, err := s.Sprint.Config(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("load sprint config: %w", err))
			}

			fs := cmd.Flags()
			if anyChanged(fs, "capacity", "points", "team", "duration", "last") {
				u := sprintConfigFlags.updates(fs)
				if u.Capacity != nil {
					cfg.Capacity = *u.Capacity
				}
				if u.PointsPerRequirement != nil {
					cfg.PointsPerRequirement = *u.PointsPerRequirement
				}
				if u.TeamSize != nil {
					cfg.TeamSize = *u.TeamSize
				}
				if u.Duration != nil {
					cfg.Duration = *u.Duration
				}
				if fs.Changed("last") {
					cfg.SprintNumber = sprintConfigLast
				}
				if err := s.Sprint.SaveConfig(cmd.Context(), cfg); err != nil {
					return MapError(fmt.Errorf("save sprint config: %w", err))
				}
				cfg.IsDefault = false
			}

			if jsonOutput {
				return printJSON(cmd, cfg)
			}
			out := cmd.OutOrStdout()
			if cfg.IsDefault {
				fmt.Fprintln(out, "No sprint configuration saved; showing defaults.")
			}
			fmt.Fprintf(out, "Last sprint:          %d\n", cfg.SprintNumber)
			fmt.Fprintf(out, "Capacity:             %d\n", cfg.Capacity)
			fmt.Fprintf(out, "Points/requirement:   %d\n", cfg.PointsPerRequirement)
			fmt.Fprintf(out, "Team size:            %d\n", cfg.TeamSize)
			fmt.Fprintf(out, "Duration (days):      %d\n", cfg.Duration)
			return nil
		})
	},
}

var sprintClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every sprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withServices(func(s *wiring.AppServices) error {
			n, err := s.Sprint.DeleteAll(cmd.Context())
			if err != nil {
				return MapError(fmt.Errorf("delete sprints: %w", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d sprint(s)\n", n)
			return nil
		})
	},
}

func init() {
	sprintStartFlags.register(sprintStartCmd.Flags())
	sprintNextFlags.register(sprintNextCmd.Flags())
	sprintModifyFlags.register(sprintModifyCmd.Flags())
	sprintConfigFlags.register(sprintConfigCmd.Flags())
	sprintConfigCmd.Flags().IntVar(&sprintConfigLast, "last", 0, "Last sprint number already used")

	sprintCmd.AddCommand(
		sprintStartCmd,
		sprintNextCmd,
		sprintCloseCmd,
		sprintShowCmd,
		sprintListCmd,
		sprintAddCmd,
		sprintRemoveCmd,
		sprintModifyCmd,
		sprintConfigCmd,
		sprintClearCmd,
	)
	RootCmd.AddCommand(sprintCmd)
}
