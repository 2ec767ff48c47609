package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/config"
	"github.com/1broseidon/xswitcher/internal/daemon"
	"github.com/1broseidon/xswitcher/internal/metrics"
)

// errDaemonRunning is returned when another daemon already owns the socket.
var errDaemonRunning = errors.New("xswitcher daemon is already running")

func newDaemonCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Keep a warm window inventory and serve clients over a socket",
		Long: "Run in the background: own the X connection, serve list and action requests on\n" +
			"$XDG_RUNTIME_DIR/xswitcher.sock, bind the palette hotkey and optionally expose /metrics.\n" +
			"SIGHUP or 'xswitcher config reload' re-reads the configuration.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd); err != nil {
				return err
			}
			defer a.logger.Sync()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if err := a.daemonClient().Ping(ctx); err == nil {
				return errDaemonRunning
			}

			backend, err := a.openBackend()
			if err != nil {
				return fmt.Errorf("daemon needs an X session: %w", err)
			}
			defer backend.Disconnect()

			paletteArgs, err := a.paletteArgs(cmd)
			if err != nil {
				return err
			}
			d, err := daemon.New(backend, a.config(), daemon.Options{
				Logger:      a.logger,
				Metrics:     metrics.New(),
				PaletteArgs: paletteArgs,
				LoadConfig: func() (*config.Config, error) {
					res, err := a.loadConfig(cmd)
					if err != nil {
						return nil, err
					}
					return res.Config, nil
				},
			})
			if err != nil {
				return err
			}
			a.logger.Info("starting daemon", zap.String("display", a.config().Display))
			return d.Run(ctx)
		},
	}
}

// paletteArgs returns the global flags a hotkey-spawned palette needs to
// see the daemon's configuration.
func (a *app) paletteArgs(cmd *cobra.Command) ([]string, error) {
	path, err := a.resolvedConfigPath()
	if err != nil {
		return nil, err
	}
	args := []string{"--config", path}
	if cmd.Flags().Changed("display") {
		args = append(args, "--display", a.display)
	}
	if cmd.Flags().Changed("log-level") {
		args = append(args, "--log-level", a.logLevel)
	}
	return args, nil
}
