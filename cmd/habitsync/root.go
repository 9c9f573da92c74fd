package main

import (
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-habit-store/internal/config"
)

type rootOptions struct {
	envFile string
	cfg     config.AppConfig
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "habitsync",
		Short: "Kanso habit store",
		Long:  "Local habit store shared between the app and its home-screen widgets.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.cfg = config.Load(opts.envFile)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "optional env file merged into the environment")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newDumpCommand(opts))
	cmd.AddCommand(newClearCommand(opts))

	return cmd
}
