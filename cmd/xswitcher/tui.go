package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xswitcher/internal/switcher"
	"github.com/1broseidon/xswitcher/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Pick a window in an interactive terminal list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAPI(cmd, func(ctx context.Context, api switcher.API) error {
				return tui.New(api, a.logger).Run(ctx)
			})
		},
	}
}
