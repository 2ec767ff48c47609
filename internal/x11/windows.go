package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
)

// EWMH state atoms xswitcher cares about.
const (
	StateSkipPager        = "_NET_WM_STATE_SKIP_PAGER"
	StateSkipTaskbar      = "_NET_WM_STATE_SKIP_TASKBAR"
	StateHidden           = "_NET_WM_STATE_HIDDEN"
	StateSticky           = "_NET_WM_STATE_STICKY"
	StateFullscreen       = "_NET_WM_STATE_FULLSCREEN"
	StateDemandsAttention = "_NET_WM_STATE_DEMANDS_ATTENTION"
)

// ClientList returns the managed windows in the order the window manager
// reports them (_NET_CLIENT_LIST is initial mapping order).
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// WindowStates returns the _NET_WM_STATE atoms set on a window. A window
// without the property has no states.
func (c *Connection) WindowStates(windowID xproto.Window) []string {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return states
}

// WindowTypes returns the _NET_WM_WINDOW_TYPE atoms of a window.
func (c *Connection) WindowTypes(windowID xproto.Window) []string {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		return nil
	}
	return types
}

// IsTransient reports whether the window declares WM_TRANSIENT_FOR.
func (c *Connection) IsTransient(windowID xproto.Window) bool {
	parent, err := icccm.WmTransientForGet(c.XUtil, windowID)
	return err == nil && parent != 0
}

// WindowTitle prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowClass returns the class part of WM_CLASS, or the instance part when
// the class is empty. This is the class-group name windows of one
// application share.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	if class := strings.TrimSpace(wmClass.Class); class != "" {
		return class
	}
	return strings.TrimSpace(wmClass.Instance)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// Sends a client message to the root window per EWMH spec. The timestamp
// must be current or focus-stealing prevention may drop the request.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(windowID xproto.Window, ts xproto.Timestamp) error {
	active, err := ewmh.ActiveWindowGet(c.XUtil)
	if err != nil {
		active = 0
	}

	const sourceIndication = 2 // pager/direct action
	return c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW",
		[]uint32{sourceIndication, uint32(ts), uint32(active), 0, 0})
}

// CloseWindow asks the window manager to close a window via _NET_CLOSE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window, ts xproto.Timestamp) error {
	const sourceIndication = 2
	return c.sendRootMessage(windowID, "_NET_CLOSE_WINDOW",
		[]uint32{uint32(ts), sourceIndication, 0, 0, 0})
}

func (c *Connection) sendRootMessage(windowID xproto.Window, atomName string, data []uint32) error {
	atomReply, err := xproto.InternAtom(c.XUtil.Conn(), false,
		uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", atomName, err)
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   atomReply.Atom,
		Data:   xproto.ClientMessageDataUnionData32New(data),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
