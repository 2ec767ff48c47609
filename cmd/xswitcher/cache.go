package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xswitcher/internal/daemon"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the icon store and the daemon's snapshot cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the icon store directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := a.setup(cmd); err != nil {
					return err
				}
				dir, err := daemon.IconDir(a.config())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
		&cobra.Command{
			Use:   "invalidate",
			Short: "Drop the daemon's cached window snapshot",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				if ctx == nil {
					ctx = context.Background()
				}
				if err := a.daemonClient().Invalidate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "snapshot cache invalidated")
				return nil
			},
		},
	)
	return cmd
}
