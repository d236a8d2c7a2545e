package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/riskaudit/internal/infrastructure/config"
)

var (
	initDriver string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .riskaudit/config.yaml in the workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		path := config.Path(root)
		if _, err := os.Stat(path); err == nil && !initForce {
			return NewCLIError("workspace already initialized", "Pass --force to overwrite "+path, nil)
		}

		cfg := config.Default()
		if initDriver != "" {
			cfg.Store.Driver = initDriver
		}
		if err := config.Save(root, cfg); err != nil {
			return NewCLIError("failed to write config", "Check --driver: filesystem, memory, badger or sqlite", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized riskaudit workspace at %s (store: %s)\n", root, cfg.Store.Driver)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initDriver, "driver", "", "Store driver (filesystem, memory, badger, sqlite)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config.yaml")
	RootCmd.AddCommand(initCmd)
}
