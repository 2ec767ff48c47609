package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/config"
	"github.com/1broseidon/xswitcher/internal/daemon"
	"github.com/1broseidon/xswitcher/internal/ipc"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

const daemonProbeTimeout = 300 * time.Millisecond

// app carries state shared by every subcommand.
type app struct {
	configPath string
	display    string
	logLevel   string
	noDaemon   bool

	result *config.LoadResult
	logger *zap.Logger

	// connect returns the API client commands talk to and a cleanup func.
	connect func(ctx context.Context) (switcher.API, func(), error)
	// daemonClient returns the client for daemon-only commands.
	daemonClient func() *ipc.Client
}

func newApp() *app {
	a := &app{logger: zap.NewNop()}
	a.connect = a.defaultConnect
	a.daemonClient = ipc.NewClient
	return a
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "xswitcher",
		Short:        "List, activate and close X11 windows",
		Long:         "xswitcher keeps a short-lived inventory of open X11 windows with cached application icons and acts on windows by id.",
		SilenceUsage: true,
		Version:      "0.1.0",
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", a.configPath, "Config file path (default: ~/.config/xswitcher/config.yaml)")
	flags.StringVar(&a.display, "display", "", "X display to connect to (default: $DISPLAY)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.noDaemon, "no-daemon", false, "Query X directly even when the daemon is running")

	root.AddCommand(
		newListCmd(a),
		newActivateCmd(a),
		newCloseCmd(a),
		newCloseAllCmd(a),
		newPaletteCmd(a),
		newTUICmd(a),
		newDaemonCmd(a),
		newStatusCmd(a),
		newMCPCmd(a),
		newCacheCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the
// logger. Commands call it before touching X or the daemon.
func (a *app) setup(cmd *cobra.Command) error {
	if a.result != nil {
		return nil
	}
	res, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	a.result = res

	logger, err := logging.New(res.Config.LoggingConfig())
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func (a *app) loadConfig(cmd *cobra.Command) (*config.LoadResult, error) {
	path, err := a.resolvedConfigPath()
	if err != nil {
		return nil, err
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("display") {
		res.Config.Display = a.display
	}
	if cmd.Flags().Changed("log-level") {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return nil, err
		}
		res.Config.LogLevel = a.logLevel
	}
	return res, nil
}

func (a *app) config() *config.Config {
	if a.result == nil {
		return config.DefaultConfig()
	}
	return a.result.Config
}

// defaultConnect prefers a running daemon and falls back to an in-process
// service on its own X connection.
func (a *app) defaultConnect(ctx context.Context) (switcher.API, func(), error) {
	if !a.noDaemon {
		client := a.daemonClient()
		probeCtx, cancel := context.WithTimeout(ctx, daemonProbeTimeout)
		err := client.Ping(probeCtx)
		cancel()
		if err == nil {
			a.logger.Debug("using daemon")
			return client, func() {}, nil
		}
		a.logger.Debug("daemon not available, querying X directly", zap.Error(err))
	}

	backend, err := a.openBackend()
	if err != nil {
		// A missing session still yields a usable, empty service.
		a.logger.Warn("no X session available", zap.Error(err))
	}
	svc, _, err := daemon.NewService(backend, a.config(), a.logger, nil)
	if err != nil {
		backend.Disconnect()
		return nil, nil, err
	}
	return svc, backend.Disconnect, nil
}

func (a *app) openBackend() (*platform.LinuxBackend, error) {
	cfg := a.config()
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
	return platform.NewLinuxBackendFromDisplay(cfg.Display, platform.LinuxOptions{
		IconSize:    cfg.IconSize,
		StickyLabel: cfg.StickyLabel,
	})
}

// withAPI runs fn against the connected API.
func (a *app) withAPI(cmd *cobra.Command, fn func(ctx context.Context, api switcher.API) error) error {
	if err := a.setup(cmd); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	api, cleanup, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	defer a.logger.Sync()
	return fn(ctx, api)
}

// parseWindowID accepts decimal or 0x-prefixed hexadecimal ids.
func parseWindowID(s string) (platform.WindowID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q: %w", s, errors.Unwrap(err))
	}
	if v == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return platform.WindowID(v), nil
}
