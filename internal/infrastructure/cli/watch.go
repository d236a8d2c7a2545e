package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/watch"
	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/riskaudit/pkg/application"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a directory and import catalog files as they are written",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "catalogs"
		if len(args) > 0 {
			dir = args[0]
		}

		return withServices(func(s *wiring.AppServices) error {
			debounce := s.Workspace.Config.Watch.Debounce
			if cmd.Flags().Changed("debounce") {
				debounce = watchDebounce
			}

			out := cmd.OutOrStdout()
			onImport := func(path string, res *application.ImportResult, err error) {
				if err != nil {
					fmt.Fprintf(out, "%s %s: %v\n", warnStyle.Render("!"), path, err)
					return
				}
				fmt.Fprintf(out, "%s %s: %d/%d requirements into %s\n",
					time.Now().Format("15:04:05"), path, res.Success, res.Total, res.CatalogID)
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  %s %s\n", warnStyle.Render("!"), e.Error())
				}
			}

			w, err := watch.NewImportWatcher(dir, debounce, s.Catalog, s.Workspace.Logger, onImport)
			if err != nil {
				return MapError(fmt.Errorf("watch %s: %w", dir, err))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(out, "Watching %s for catalog files (debounce %s)...\n", dir, debounce)
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before a changed file is imported (defaults to watch.debounce in config.yaml)")
	RootCmd.AddCommand(watchCmd)
}
