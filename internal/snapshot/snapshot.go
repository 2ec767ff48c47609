// Package snapshot turns live window-manager state into an ordered,
// point-in-time list of switchable windows and caches it for a short TTL.
package snapshot

import (
	"strings"

	"github.com/1broseidon/xswitcher/internal/platform"
)

// Record is one visible window at snapshot time.
type Record struct {
	ID        platform.WindowID `json:"id" yaml:"id"`
	Title     string            `json:"title" yaml:"title"`
	Workspace string            `json:"workspace" yaml:"workspace"`
	AppKey    string            `json:"app_key" yaml:"app_key"`
	IconRef   string            `json:"icon_ref" yaml:"icon_ref"`
}

// Snapshot is the ordered set of visible windows. Order follows the window
// manager's enumeration at build time and never changes afterwards.
type Snapshot struct {
	Records []Record `json:"windows" yaml:"windows"`
}

// Len returns the number of records.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

// Find returns the record with the given id.
func (s *Snapshot) Find(id platform.WindowID) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Record{}, false
}

// AppKey normalizes a class-group name into the grouping key shared by the
// icon store and close-all.
func AppKey(className string) string {
	return strings.ToLower(strings.TrimSpace(className))
}

// IsHidden reports whether a window asked to be left out of pagers or task
// lists. Either flag alone hides it.
func IsHidden(state platform.StateFlags) bool {
	return state&(platform.StateSkipPager|platform.StateSkipTaskbar) != 0
}
