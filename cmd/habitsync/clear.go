package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every habit and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear without --yes")
			}

			a := newApp(opts.cfg)
			defer a.Close()

			if err := a.store.Clear(cmd.Context()); err != nil {
				return err
			}
			a.worker.Drain(cmd.Context())

			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Cleared habit document from %s backend\n", a.backend.Name())
			return err
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
