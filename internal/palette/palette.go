package palette

import (
	"fmt"
	"os/exec"
	"strings"
)

// Item is a single selectable entry in a palette menu.
type Item struct {
	Label   string // Display text
	Subtext string // Secondary text (workspace), rendered after the label
	Icon    string // Icon name or absolute path to an image
	Info    string // Hidden data returned on selection (rofi info field)
	Meta    string // Hidden search keywords (rofi meta field)
}

// SelectResult contains the result of a palette selection.
type SelectResult struct {
	Index    int // Position of Item in the list passed to Show
	Item     Item
	ExitCode int // 0=normal, 10=kb-custom-1 (Alt+Return), 11=kb-custom-2 (Alt+d)
}

// Capabilities describes what features a backend supports.
type Capabilities struct {
	Icons       bool // Supports icon display
	Markup      bool // Supports pango markup in labels
	CustomKeys  bool // Supports kb-custom-N keybindings
	IndexOutput bool // Can output selection index (not just text)
	MessageBar  bool // Supports message/prompt bar
}

// Backend shows a palette to the user and returns the selected item.
type Backend interface {
	// Show displays the palette and returns the selected item.
	// prompt: the prompt text shown to the user
	// items: the list of items to display
	// message: optional context message (shown in rofi message bar)
	// Returns: selected item result with exit code, or error
	Show(prompt string, items []Item, message string) (SelectResult, error)

	// Capabilities returns the features supported by this backend.
	Capabilities() Capabilities
}

// FuzzyMatcher is implemented by backends that can switch to fuzzy matching.
type FuzzyMatcher interface {
	SetFuzzyMatching(enabled bool)
}

// AutoDetect selects the first available backend in priority order.
func AutoDetect() (Backend, error) {
	name, err := DetectBackend()
	if err != nil {
		return nil, err
	}
	return NewBackend(name)
}

// NewBackend creates a backend by name.
//
// Supported names: auto, rofi, fuzzel, wofi, dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	var ctor func() Backend
	switch name {
	case "", "auto":
		return AutoDetect()
	case "rofi":
		ctor = NewRofiBackend
	case "fuzzel":
		ctor = NewFuzzelBackend
	case "wofi":
		ctor = NewWofiBackend
	case "dmenu":
		ctor = NewDmenuBackend
	default:
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, rofi, fuzzel, wofi, dmenu)", name)
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return ctor(), nil
}
