package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "clipgen",
		Short:         "Generate synthetic test clips on demand",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file (default $CLIPGEN_CONFIG)")
	pf.StringVar(&a.envFile, "env-file", a.envFile, "env file loaded before the config")
	pf.StringVar(&a.storage, "storage", "", "storage root (overrides config)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		newGenerateCmd(a),
		newStatusCmd(a),
		newServeCmd(a),
		newMountCmd(a),
		newRunsCmd(a),
	)
	return root
}
