package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

func newActivateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate WINDOW_ID",
		Short: "Focus a window by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWindowID(args[0])
			if err != nil {
				return err
			}
			return a.dispatch(cmd, actions.Activate(id))
		},
	}
}

func newCloseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close WINDOW_ID",
		Short: "Ask the window manager to close a window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWindowID(args[0])
			if err != nil {
				return err
			}
			return a.dispatch(cmd, actions.Close(id))
		},
	}
}

func newCloseAllCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close-all APP",
		Short: "Close every window of an application",
		Long:  "Close every window whose WM_CLASS class matches APP, case-insensitively.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.dispatch(cmd, actions.CloseAll(args[0]))
		},
	}
}

// dispatch runs act and reports how many windows it reached. A window that
// no longer exists is not an error.
func (a *app) dispatch(cmd *cobra.Command, act actions.Action) error {
	if err := act.Validate(); err != nil {
		return err
	}
	return a.withAPI(cmd, func(ctx context.Context, api switcher.API) error {
		n, err := api.Dispatch(ctx, act)
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d window(s)\n", act.Kind, n)
		return err
	})
}
