//go:build linux

package platform

import (
	"errors"
	"fmt"
	"image"

	"github.com/1broseidon/xswitcher/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxOptions tunes how X11 window properties are mapped to Window values.
type LinuxOptions struct {
	// IconSize is the preferred edge length used to pick among the icons a
	// window publishes.
	IconSize int
	// StickyLabel is reported as the workspace of windows on all desktops.
	StickyLabel string
}

// LinuxBackend wraps an existing X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection
	opts LinuxOptions
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11
// connection. A nil connection yields a backend that reports ErrNoSession.
func NewLinuxBackend(conn *x11.Connection, opts LinuxOptions) *LinuxBackend {
	if opts.IconSize <= 0 {
		opts.IconSize = 48
	}
	if opts.StickyLabel == "" {
		opts.StickyLabel = "All workspaces"
	}
	return &LinuxBackend{conn: conn, opts: opts}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh
// X11 connection. Connection failures wrap ErrNoSession.
func NewLinuxBackendFromDisplay(display string, opts LinuxOptions) (*LinuxBackend, error) {
	conn, err := x11.NewConnection(display)
	if err != nil {
		return NewLinuxBackend(nil, opts), fmt.Errorf("%w: failed to connect to X11: %v", ErrNoSession, err)
	}
	return NewLinuxBackend(conn, opts), nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// StopEventLoop makes a running EventLoop return.
func (b *LinuxBackend) StopEventLoop() {
	if b != nil && b.conn != nil {
		b.conn.StopEventLoop()
	}
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// Windows lists every managed client in _NET_CLIENT_LIST order.
func (b *LinuxBackend) Windows() ([]Window, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	clients, err := conn.ClientList()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}

	names := conn.DesktopNames()
	windows := make([]Window, 0, len(clients))
	for _, windowID := range clients {
		win := Window{
			ID:        WindowID(windowID),
			Title:     conn.WindowTitle(windowID),
			State:     b.windowState(windowID),
			ClassName: conn.WindowClass(windowID),
			Icon:      b.iconSource(windowID),
		}
		win.Workspace, win.WorkspaceErr = b.workspaceName(windowID, names)
		windows = append(windows, win)
	}
	return windows, nil
}

// ServerTime returns the current X server timestamp.
func (b *LinuxBackend) ServerTime() (Timestamp, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}
	ts, err := conn.ServerTime()
	if err != nil {
		return 0, err
	}
	return Timestamp(ts), nil
}

// SyncEvents flushes outstanding requests and drains queued events.
func (b *LinuxBackend) SyncEvents() {
	if b == nil || b.conn == nil {
		return
	}
	b.conn.Sync()
}

// Activate requests focus for a window.
func (b *LinuxBackend) Activate(id WindowID, ts Timestamp) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.FocusWindow(xproto.Window(id), xproto.Timestamp(ts))
}

// Close requests the window manager to close a window.
func (b *LinuxBackend) Close(id WindowID, ts Timestamp) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.CloseWindow(xproto.Window(id), xproto.Timestamp(ts))
}

// windowState folds _NET_WM_STATE and _NET_WM_WINDOW_TYPE into StateFlags.
// Desktop, dock and splash windows never belong in a task list or pager;
// toolbars and menus stay out of the pager; transient dialogs and utility
// windows stay out of the task list.
func (b *LinuxBackend) windowState(windowID xproto.Window) StateFlags {
	conn := b.conn
	var flags StateFlags
	for _, state := range conn.WindowStates(windowID) {
		flags |= stateFlag(state)
	}

	for _, t := range conn.WindowTypes(windowID) {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DESKTOP", "_NET_WM_WINDOW_TYPE_DOCK", "_NET_WM_WINDOW_TYPE_SPLASH":
			flags |= StateSkipPager | StateSkipTaskbar
		case "_NET_WM_WINDOW_TYPE_TOOLBAR", "_NET_WM_WINDOW_TYPE_MENU":
			flags |= StateSkipPager
			if conn.IsTransient(windowID) {
				flags |= StateSkipTaskbar
			}
		case "_NET_WM_WINDOW_TYPE_UTILITY", "_NET_WM_WINDOW_TYPE_DIALOG":
			if conn.IsTransient(windowID) {
				flags |= StateSkipTaskbar
			}
		}
	}
	return flags
}

func stateFlag(atom string) StateFlags {
	switch atom {
	case x11.StateSkipPager:
		return StateSkipPager
	case x11.StateSkipTaskbar:
		return StateSkipTaskbar
	case x11.StateHidden:
		return StateHidden
	case x11.StateSticky:
		return StateSticky
	case x11.StateFullscreen:
		return StateFullscreen
	case x11.StateDemandsAttention:
		return StateDemandsAttention
	}
	return 0
}

func (b *LinuxBackend) workspaceName(windowID xproto.Window, names []string) (string, error) {
	desktop, err := b.conn.GetWindowDesktop(windowID)
	if err != nil {
		return "", err
	}
	return desktopLabel(desktop, names, b.opts.StickyLabel), nil
}

func desktopLabel(desktop int, names []string, sticky string) string {
	if desktop == x11.StickyDesktop {
		return sticky
	}
	if desktop >= 0 && desktop < len(names) && names[desktop] != "" {
		return names[desktop]
	}
	return fmt.Sprintf("Workspace %d", desktop+1)
}

func (b *LinuxBackend) iconSource(windowID xproto.Window) IconSource {
	conn, size := b.conn, b.opts.IconSize
	return IconFunc(func() (image.Image, error) {
		img, err := conn.WindowIcon(windowID, size)
		if errors.Is(err, x11.ErrNoIcon) {
			return nil, fmt.Errorf("%w: %v", ErrNoIcon, err)
		}
		return img, err
	})
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, ErrNoSession
	}
	return b.conn, nil
}
