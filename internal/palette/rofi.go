package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Exit codes for rofi kb-custom keybindings
const (
	ExitNormal    = 0  // Normal selection
	ExitCancelled = 1  // User cancelled (Escape)
	ExitCustom1   = 10 // kb-custom-1 (Alt+Return by default)
	ExitCustom2   = 11 // kb-custom-2 (Alt+d by default)
	ExitCustom3   = 12 // kb-custom-3
)

type backendKind int

const (
	kindRofi backendKind = iota
	kindFuzzel
	kindWofi
	kindDmenu
)

type dmenuLikeBackend struct {
	command string
	kind    backendKind
	caps    Capabilities

	fuzzyMatching bool
}

func NewRofiBackend() Backend {
	return &dmenuLikeBackend{
		command: "rofi",
		kind:    kindRofi,
		caps: Capabilities{
			Icons:       true,
			Markup:      true,
			CustomKeys:  true,
			IndexOutput: true,
			MessageBar:  true,
		},
	}
}

func NewDmenuBackend() Backend {
	return &dmenuLikeBackend{
		command: "dmenu",
		kind:    kindDmenu,
	}
}

func NewWofiBackend() Backend {
	return &dmenuLikeBackend{
		command: "wofi",
		kind:    kindWofi,
		caps: Capabilities{
			Icons: true,
		},
	}
}

func NewFuzzelBackend() Backend {
	return &dmenuLikeBackend{
		command: "fuzzel",
		kind:    kindFuzzel,
		caps: Capabilities{
			Icons:       true,
			IndexOutput: true,
		},
	}
}

func (b *dmenuLikeBackend) Capabilities() Capabilities {
	return b.caps
}

// SetFuzzyMatching enables rofi's fuzzy matching mode when supported.
func (b *dmenuLikeBackend) SetFuzzyMatching(enabled bool) {
	b.fuzzyMatching = enabled
}

func (b *dmenuLikeBackend) Show(prompt string, items []Item, message string) (SelectResult, error) {
	if len(items) == 0 {
		return SelectResult{}, fmt.Errorf("palette: no items to show")
	}

	displayItems := make([]Item, len(items))
	copy(displayItems, items)

	input := b.formatInput(displayItems)
	args := b.buildArgs(prompt, message)

	cmd := exec.Command(b.command, args...)
	cmd.Stdin = strings.NewReader(input)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	selection := strings.TrimSpace(string(out))

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}

		// Check for cancel (exit code 1 or 130 for Ctrl+C)
		if selection == "" && isCancelExit(err) {
			return SelectResult{}, ErrCancelled
		}

		// Custom keybinding exits (10, 11, 12) are not errors
		if exitCode < ExitCustom1 || exitCode > ExitCustom3 {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return SelectResult{}, fmt.Errorf("%s failed: %s", b.command, msg)
			}
			return SelectResult{}, fmt.Errorf("%s failed: %w", b.command, err)
		}
	}

	if selection == "" {
		return SelectResult{}, ErrCancelled
	}

	idx, err := b.parseSelection(selection, displayItems)
	if err != nil {
		return SelectResult{}, err
	}

	return SelectResult{
		Index:    idx,
		Item:     items[idx],
		ExitCode: exitCode,
	}, nil
}

func (b *dmenuLikeBackend) buildArgs(prompt string, message string) []string {
	var args []string

	switch b.kind {
	case kindRofi:
		args = []string{"-dmenu", "-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		// Output only the index for robust selection parsing (titles may contain anything).
		args = append(args, "-format", "i")
		// Only listed windows can be picked.
		args = append(args, "-no-custom")
		if b.fuzzyMatching {
			args = append(args, "-matching", "fuzzy")
		}
		args = append(args, "-markup-rows", "-show-icons")
		args = append(args, "-kb-custom-1", "Alt+Return")
		args = append(args, "-kb-custom-2", "Alt+d")
		if message != "" {
			args = append(args, "-mesg", message)
		}

	case kindFuzzel:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
		args = append(args, "--index")

	case kindWofi:
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
		args = append(args, "--allow-images")

	case kindDmenu:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}

	return args
}

func (b *dmenuLikeBackend) formatInput(items []Item) string {
	// Backends that match by visible text (dmenu/wofi) need label disambiguation.
	// Index-output backends (rofi/fuzzel) select by row index and do not.
	if !b.caps.IndexOutput {
		seen := make(map[string]int)
		for i := range items {
			key := b.plainLabel(items[i])
			if key == "" {
				continue
			}
			if count := seen[key]; count > 0 {
				items[i].Label = fmt.Sprintf("%s (%d)", sanitizeLabel(items[i].Label), count+1)
			}
			seen[key]++
		}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, b.formatItem(item))
	}
	return strings.Join(lines, "\n")
}

// plainLabel is the text dmenu echoes back for item.
func (b *dmenuLikeBackend) plainLabel(item Item) string {
	label := sanitizeLabel(item.Label)
	if sub := sanitizeLabel(item.Subtext); sub != "" && label != "" {
		label += " [" + sub + "]"
	}
	return label
}

func (b *dmenuLikeBackend) formatItem(item Item) string {
	display := b.plainLabel(item)
	if b.caps.Markup {
		// Markup is enabled: escape all user-controlled content, and add our own markup where desired.
		display = html.EscapeString(sanitizeLabel(item.Label))
		if sub := sanitizeLabel(item.Subtext); sub != "" {
			display += fmt.Sprintf(" <span foreground='#888888'><small>%s</small></span>", html.EscapeString(sub))
		}
	}

	switch b.kind {
	case kindRofi:
		// Rofi dmenu supports entry properties via the \0key\x1fvalue protocol.
		// There is a single NUL separator followed by key/value pairs delimited by \x1f.
		var attrs []string
		if item.Icon != "" {
			attrs = append(attrs, "icon", sanitizeRofiField(item.Icon))
		}
		if item.Info != "" {
			attrs = append(attrs, "info", sanitizeRofiField(item.Info))
		}
		if item.Meta != "" {
			attrs = append(attrs, "meta", sanitizeRofiField(item.Meta))
		}
		if len(attrs) == 0 {
			return display
		}
		return display + "\x00" + strings.Join(attrs, "\x1f")

	case kindFuzzel:
		// Fuzzel understands the rofi icon property.
		if item.Icon != "" {
			return display + "\x00icon\x1f" + sanitizeRofiField(item.Icon)
		}
		return display

	case kindWofi:
		if item.Icon != "" && filepath.IsAbs(item.Icon) {
			return "img:" + sanitizeRofiField(item.Icon) + ":text:" + display
		}
		return display
	}
	return display
}

func (b *dmenuLikeBackend) parseSelection(selection string, items []Item) (int, error) {
	if b.caps.IndexOutput {
		idx, err := strconv.Atoi(selection)
		if err != nil {
			return b.findByLabel(selection, items)
		}
		if idx < 0 || idx >= len(items) {
			return 0, fmt.Errorf("palette: index %d out of range", idx)
		}
		return idx, nil
	}
	return b.findByLabel(selection, items)
}

func (b *dmenuLikeBackend) findByLabel(selection string, items []Item) (int, error) {
	if strings.HasPrefix(selection, "img:") {
		if i := strings.Index(selection, ":text:"); i >= 0 {
			selection = selection[i+len(":text:"):]
		}
	}
	for i, item := range items {
		if b.plainLabel(item) == selection || sanitizeLabel(item.Label) == selection {
			return i, nil
		}
	}
	return 0, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	// Avoid breaking the \0key\x1fvalue protocol with control separators.
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// Rofi/dmenu/wofi typically use 1 for "no selection" and 130 for Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
