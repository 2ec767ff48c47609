package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// StickyDesktop is returned by GetWindowDesktop for windows visible on all
// desktops.
const StickyDesktop = -1

// GetWindowDesktop returns the desktop number a window is on.
// Uses _NET_WM_DESKTOP atom. Returns StickyDesktop for windows visible on
// all desktops.
func (c *Connection) GetWindowDesktop(windowID xproto.Window) (int, error) {
	desktop, err := ewmh.WmDesktopGet(c.XUtil, windowID)
	if err != nil {
		return 0, fmt.Errorf("failed to get window desktop: %w", err)
	}
	// 0xFFFFFFFF means the window is on all desktops (sticky)
	if desktop == 0xFFFFFFFF {
		return StickyDesktop, nil
	}
	return int(desktop), nil
}

// DesktopNames returns _NET_DESKTOP_NAMES. Window managers may publish fewer
// names than desktops, or none at all.
func (c *Connection) DesktopNames() []string {
	names, err := ewmh.DesktopNamesGet(c.XUtil)
	if err != nil {
		return nil
	}
	return names
}
