package mcp

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Case-insensitive substring matched against window title, workspace and application. Empty lists every window."`
}

// WindowInfo describes one switchable window.
type WindowInfo struct {
	WindowID  uint32 `json:"window_id"`
	Title     string `json:"title"`
	Workspace string `json:"workspace"`
	App       string `json:"app"`
	IconPath  string `json:"icon_path"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []WindowInfo `json:"windows"`
	Count   int          `json:"count"`
}

// WindowInput targets a single window (activate_window, close_window).
type WindowInput struct {
	WindowID uint32 `json:"window_id" jsonschema:"required,X11 window id as returned by list_windows"`
}

// CloseAppWindowsInput is the input for the close_app_windows tool.
type CloseAppWindowsInput struct {
	App string `json:"app" jsonschema:"required,Application key (lowercased WM_CLASS) as returned by list_windows"`
}

// ActionOutput reports how many windows an action touched. Zero means the
// target no longer exists.
type ActionOutput struct {
	Affected int `json:"affected"`
}
