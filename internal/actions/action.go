package actions

import (
	"fmt"
	"strings"

	"github.com/1broseidon/xswitcher/internal/platform"
)

// Kind names a window action.
type Kind string

const (
	KindActivate Kind = "activate"
	KindClose    Kind = "close"
	KindCloseAll Kind = "close_all"
)

// Action is a request against a window or an application. Activate and
// Close target WindowID; CloseAll targets AppKey.
type Action struct {
	Kind     Kind              `json:"kind" yaml:"kind"`
	WindowID platform.WindowID `json:"window_id,omitempty" yaml:"window_id,omitempty"`
	AppKey   string            `json:"app_key,omitempty" yaml:"app_key,omitempty"`
	Label    string            `json:"label,omitempty" yaml:"label,omitempty"`
}

// Activate focuses a window.
func Activate(id platform.WindowID) Action {
	return Action{Kind: KindActivate, WindowID: id}
}

// Close closes a window.
func Close(id platform.WindowID) Action {
	return Action{Kind: KindClose, WindowID: id}
}

// CloseAll closes every window of an application.
func CloseAll(appKey string) Action {
	return Action{Kind: KindCloseAll, AppKey: appKey}
}

// Validate checks that the action carries the target its kind needs.
func (a Action) Validate() error {
	switch a.Kind {
	case KindActivate, KindClose:
		if a.WindowID == 0 {
			return fmt.Errorf("%s requires a window id", a.Kind)
		}
	case KindCloseAll:
		if strings.TrimSpace(a.AppKey) == "" {
			return fmt.Errorf("%s requires an app key", a.Kind)
		}
	default:
		return fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return nil
}

// ParseKind accepts the canonical kind names plus a few CLI spellings.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "activate", "focus":
		return KindActivate, nil
	case "close":
		return KindClose, nil
	case "close_all", "close-all", "closeall":
		return KindCloseAll, nil
	}
	return "", fmt.Errorf("unknown action %q (expected activate, close, close_all)", s)
}
