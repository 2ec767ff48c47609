// Package daemon keeps one window inventory warm for every client: it owns
// the X connection, serves the IPC socket and binds the palette hotkey.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/config"
	"github.com/1broseidon/xswitcher/internal/hotkeys"
	"github.com/1broseidon/xswitcher/internal/iconstore"
	"github.com/1broseidon/xswitcher/internal/ipc"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/metrics"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/switcher"
	"github.com/1broseidon/xswitcher/internal/xdgpath"
)

// IconDir returns the icon store directory for cfg.
func IconDir(cfg *config.Config) (string, error) {
	if cfg.CacheDir != "" {
		return cfg.CacheDir, nil
	}
	return xdgpath.IconDir()
}

// NewService wires the icon store, snapshot cache and action gateway for
// backend according to cfg.
func NewService(backend platform.Backend, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*switcher.Service, *iconstore.Store, error) {
	dir, err := IconDir(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve icon directory: %w", err)
	}
	store, err := iconstore.New(dir, iconstore.Options{Size: cfg.IconSize, Logger: logger, Metrics: m})
	if err != nil {
		return nil, nil, err
	}
	svc := switcher.NewStack(backend, store, switcher.StackOptions{
		TTL:     cfg.CacheTTL,
		Partial: cfg.PartialSnapshots,
		Logger:  logger,
		Metrics: m,
	})
	return svc, store, nil
}

// Options configures a Daemon.
type Options struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	// SocketPath overrides the default IPC socket.
	SocketPath string
	// LoadConfig re-reads the configuration for RELOAD and SIGHUP. Nil
	// disables reloading.
	LoadConfig func() (*config.Config, error)
	// OpenPalette runs when the hotkey fires. Defaults to launching
	// "<executable> [PaletteArgs...] palette".
	OpenPalette func()
	// PaletteArgs are global flags for the spawned palette, so it reads the
	// same config file as the daemon.
	PaletteArgs []string
}

// eventLooper is implemented by backends that need an event loop for
// hotkeys to fire.
type eventLooper interface {
	EventLoop()
	StopEventLoop()
}

// Daemon is a running xswitcher instance.
type Daemon struct {
	backend platform.Backend
	svc     *switcher.Service
	store   *iconstore.Store
	opts    Options
	logger  *zap.Logger

	mu      sync.Mutex
	cfg     *config.Config
	hotkeys *hotkeys.Handler

	server *ipc.Server
}

// New creates a daemon over backend. Nothing is started until Run.
func New(backend platform.Backend, cfg *config.Config, opts Options) (*Daemon, error) {
	logger := logging.OrNop(opts.Logger)
	svc, store, err := NewService(backend, cfg, logger, opts.Metrics)
	if err != nil {
		return nil, err
	}

	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath, err = xdgpath.SocketPath()
		if err != nil {
			return nil, err
		}
	}

	d := &Daemon{
		backend: backend,
		svc:     svc,
		store:   store,
		opts:    opts,
		logger:  logger,
		cfg:     cfg,
	}
	if d.opts.OpenPalette == nil {
		d.opts.OpenPalette = d.spawnPalette
	}
	d.server = ipc.NewServer(socketPath, svc, ipc.ServerOptions{
		Logger:  logger,
		Reload:  d.Reload,
		Display: cfg.Display,
		IconDir: store.Dir(),
	})
	return d, nil
}

// Service returns the daemon's window service.
func (d *Daemon) Service() *switcher.Service {
	return d.svc
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives. SIGHUP
// reloads the configuration.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := d.server.Start(); err != nil {
		return err
	}
	defer d.server.Stop()

	cfg := d.Config()
	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.PrewarmInterval > 0 {
		w := NewWarmer(WarmerConfig{Interval: cfg.PrewarmInterval, Logger: d.logger}, d.svc)
		w.WarmNow(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	if cfg.MetricsAddr != "" {
		srv := d.metricsServer(cfg.MetricsAddr)
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.serveMetrics(ctx, srv)
		}()
	}

	d.bindHotkey(cfg.Hotkey)
	defer d.unbindHotkey()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	// The loop only notices a stop request on its next event, so shutdown
	// does not wait for it; closing the connection ends it.
	if looper, ok := d.backend.(eventLooper); ok {
		go looper.EventLoop()
		defer looper.StopEventLoop()
	}

	d.logger.Info("xswitcher daemon started",
		zap.String("socket", d.server.SocketPath()),
		zap.String("icons", d.store.Dir()),
		zap.Duration("cache_ttl", cfg.CacheTTL))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down xswitcher daemon")
			return nil
		case <-hup:
			d.logger.Info("received SIGHUP, reloading config")
			if err := d.Reload(); err != nil {
				d.logger.Warn("config reload failed", zap.Error(err))
			}
		}
	}
}

// Reload re-reads the configuration and applies what can change at
// runtime: cache TTL and the hotkey. The cached snapshot is dropped.
func (d *Daemon) Reload() error {
	if d.opts.LoadConfig == nil {
		return errors.New("no config source to reload from")
	}
	next, err := d.opts.LoadConfig()
	if err != nil {
		return err
	}

	d.mu.Lock()
	prev := d.cfg
	d.cfg = next
	d.mu.Unlock()

	d.svc.SetTTL(next.CacheTTL)
	d.svc.Invalidate()
	if next.Hotkey != prev.Hotkey {
		d.unbindHotkey()
		d.bindHotkey(next.Hotkey)
	}
	for _, field := range restartOnly(prev, next) {
		d.logger.Warn("config change needs a daemon restart", zap.String("key", field))
	}
	d.logger.Info("config applied", zap.Duration("cache_ttl", next.CacheTTL))
	return nil
}

// restartOnly lists changed keys that Reload cannot apply.
func restartOnly(prev, next *config.Config) []string {
	var keys []string
	if prev.Display != next.Display {
		keys = append(keys, "display")
	}
	if prev.CacheDir != next.CacheDir {
		keys = append(keys, "cache_dir")
	}
	if prev.IconSize != next.IconSize {
		keys = append(keys, "icon_size")
	}
	if prev.PartialSnapshots != next.PartialSnapshots {
		keys = append(keys, "partial_snapshots")
	}
	if prev.MetricsAddr != next.MetricsAddr {
		keys = append(keys, "metrics_addr")
	}
	if prev.PrewarmInterval != next.PrewarmInterval {
		keys = append(keys, "prewarm_interval")
	}
	return keys
}

func (d *Daemon) bindHotkey(seq string) {
	if seq == "" {
		return
	}
	h, err := hotkeys.NewHandler(d.backend, d.logger)
	if err != nil {
		d.logger.Warn("hotkey disabled", zap.Error(err))
		return
	}
	if err := h.Register(seq, d.opts.OpenPalette); err != nil {
		d.logger.Warn("failed to register palette hotkey", zap.String("hotkey", seq), zap.Error(err))
		return
	}
	d.mu.Lock()
	d.hotkeys = h
	d.mu.Unlock()
}

func (d *Daemon) unbindHotkey() {
	d.mu.Lock()
	h := d.hotkeys
	d.hotkeys = nil
	d.mu.Unlock()
	if h != nil {
		h.Unregister()
	}
}

// spawnPalette runs the palette as a child process so a hung launcher never
// blocks the event loop.
func (d *Daemon) spawnPalette() {
	exe, err := os.Executable()
	if err != nil {
		d.logger.Warn("palette: failed to find executable", zap.Error(err))
		return
	}
	cmd := d.paletteCommand(exe)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		d.logger.Warn("palette exited with error", zap.Error(err))
	}
}

func (d *Daemon) paletteCommand(exe string) *exec.Cmd {
	args := append(append([]string(nil), d.opts.PaletteArgs...), "palette")
	return exec.Command(exe, args...)
}

func (d *Daemon) metricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.opts.Metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func (d *Daemon) serveMetrics(ctx context.Context, srv *http.Server) {
	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("metrics listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			d.logger.Warn("metrics server failed", zap.Error(err))
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		<-errCh
	}
}
