package platform

import (
	"errors"
	"image"
)

// WindowID is the window-system identifier of a top-level window. X reuses
// ids after a window is destroyed, so an id is only meaningful against the
// live window list.
type WindowID uint32

// Timestamp is an X server timestamp used to arbitrate focus requests.
type Timestamp uint32

// StateFlags is a bitmask of window-manager state hints.
type StateFlags uint32

const (
	StateSkipPager StateFlags = 1 << iota
	StateSkipTaskbar
	StateHidden
	StateSticky
	StateFullscreen
	StateDemandsAttention
)

// Has reports whether every bit in f is set.
func (s StateFlags) Has(f StateFlags) bool {
	return s&f == f
}

// ErrNoSession is returned when there is no reachable window-manager screen.
var ErrNoSession = errors.New("no window manager session available")

// ErrNoIcon is returned by an IconSource when the window exposes no icon.
var ErrNoIcon = errors.New("window has no icon")

// IconSource produces a window's icon raster on demand. Implementations may
// hit the X server, so callers should only ask when the pixels are needed.
type IconSource interface {
	Icon() (image.Image, error)
}

// IconFunc adapts a function to IconSource.
type IconFunc func() (image.Image, error)

// Icon implements IconSource.
func (f IconFunc) Icon() (image.Image, error) {
	return f()
}

// Window is a point-in-time view of one managed top-level window.
type Window struct {
	ID        WindowID
	Title     string
	State     StateFlags
	Workspace string
	ClassName string

	// WorkspaceErr is set when the desktop of the window could not be
	// resolved. The snapshot builder decides whether that is fatal.
	WorkspaceErr error

	Icon IconSource
}

// Backend abstracts the window-manager operations xswitcher needs.
type Backend interface {
	// Windows returns managed windows in window-manager enumeration order.
	// ErrNoSession means no screen is available.
	Windows() ([]Window, error)
	// ServerTime returns the current X server timestamp.
	ServerTime() (Timestamp, error)
	// SyncEvents flushes pending requests and drains queued events.
	SyncEvents()
	Activate(id WindowID, ts Timestamp) error
	Close(id WindowID, ts Timestamp) error
}
