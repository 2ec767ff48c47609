package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/1broseidon/xswitcher/internal/palette"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

func newPaletteCmd(a *app) *cobra.Command {
	var backendName string
	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Pick a window in rofi, fuzzel, wofi or dmenu",
		Long: "Show every window in a launcher menu with its icon.\n\n" +
			"Keybindings (rofi only):\n" +
			"  Enter       Activate window\n" +
			"  Alt+Return  Close window\n" +
			"  Alt+d       Close all windows of the application",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withAPI(cmd, func(ctx context.Context, api switcher.API) error {
				cfg := a.config()
				name := cfg.PaletteBackend
				if backendName != "" {
					name = backendName
				}
				backend, err := palette.NewBackend(name)
				if err != nil {
					return err
				}
				if fm, ok := backend.(palette.FuzzyMatcher); ok {
					fm.SetFuzzyMatching(cfg.PaletteFuzzyMatching)
				}

				_, err = palette.NewSwitcher(api, backend, a.logger).Run(ctx)
				switch {
				case errors.Is(err, palette.ErrCancelled):
					return nil
				case errors.Is(err, palette.ErrNoWindows):
					fmt.Fprintln(cmd.ErrOrStderr(), "no windows to switch to")
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&backendName, "backend", "", "Override palette_backend (auto, rofi, fuzzel, wofi, dmenu)")
	return cmd
}
