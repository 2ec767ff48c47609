// Package switcher is the query surface consumers use: it serializes access
// to the snapshot cache, matches queries against window text and routes
// chosen actions to the gateway.
package switcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/metrics"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/snapshot"
)

const shortTitleLen = 15

// Item is one query result.
type Item struct {
	// ID is a display identity derived from the title. Two windows with the
	// same title share it; use Actions for anything that must hit the right
	// window.
	ID       string            `json:"id" yaml:"id"`
	Title    string            `json:"title" yaml:"title"`
	Subtext  string            `json:"subtext" yaml:"subtext"`
	AppKey   string            `json:"app_key" yaml:"app_key"`
	IconRef  string            `json:"icon_ref" yaml:"icon_ref"`
	Actions  []actions.Action  `json:"actions" yaml:"actions"`
	WindowID platform.WindowID `json:"window_id" yaml:"window_id"`
}

// Options configures a Service.
type Options struct {
	// Now supplies the time used for cache expiry; defaults to time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// Service is safe for concurrent use.
type Service struct {
	mu      sync.Mutex
	cache   *snapshot.Cache
	gateway *actions.Gateway
	now     func() time.Time
	logger  *zap.Logger
}

// New creates a Service.
func New(cache *snapshot.Cache, gateway *actions.Gateway, opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		cache:   cache,
		gateway: gateway,
		now:     now,
		logger:  logging.OrNop(opts.Logger),
	}
}

// StackOptions configures NewStack.
type StackOptions struct {
	TTL     time.Duration
	Partial bool
	Now     func() time.Time
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// NewStack wires a builder, cache and gateway over one backend.
func NewStack(backend platform.Backend, icons snapshot.IconResolver, opts StackOptions) *Service {
	builder := snapshot.NewBuilder(backend, icons, snapshot.BuilderOptions{
		Partial: opts.Partial,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	cache := snapshot.NewCache(builder.Build, opts.TTL, opts.Metrics)
	gateway := actions.NewGateway(backend, actions.Options{Logger: opts.Logger, Metrics: opts.Metrics})
	return New(cache, gateway, Options{Now: opts.Now, Logger: opts.Logger})
}

// Snapshot returns the current (possibly cached) snapshot.
func (s *Service) Snapshot(ctx context.Context) (*snapshot.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Get(ctx, s.now())
}

// Query returns the windows whose title, workspace or application contain
// query, case-insensitively, in snapshot order.
func (s *Service) Query(ctx context.Context, query string) ([]Item, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return Match(snap, query), nil
}

// Dispatch runs an action. Close actions drop the cached snapshot so the
// closed windows disappear from the next query.
func (s *Service) Dispatch(ctx context.Context, a actions.Action) (int, error) {
	n, err := s.gateway.Dispatch(ctx, a)
	if a.Kind != actions.KindActivate && n > 0 {
		s.Invalidate()
	}
	if err != nil {
		s.logger.Warn("action failed", zap.String("kind", string(a.Kind)), zap.Error(err))
	}
	return n, err
}

// Invalidate drops the cached snapshot.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Invalidate()
}

// SetTTL changes the cache TTL.
func (s *Service) SetTTL(ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.SetTTL(ttl)
}

// CacheInfo reports when the snapshot was built and the TTL in force.
func (s *Service) CacheInfo() (builtAt time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.BuiltAt(), s.cache.TTL()
}

// Match filters snap by substring containment of the trimmed, lowercased
// query in title + workspace + app key.
func Match(snap *snapshot.Snapshot, query string) []Item {
	q := strings.ToLower(strings.TrimSpace(query))
	items := make([]Item, 0, snap.Len())
	if snap == nil {
		return items
	}
	for _, rec := range snap.Records {
		target := strings.ToLower(rec.Title + rec.Workspace + rec.AppKey)
		if !strings.Contains(target, q) {
			continue
		}
		items = append(items, itemFor(rec))
	}
	return items
}

func itemFor(rec snapshot.Record) Item {
	short := ShortTitle(rec.Title)

	activate := actions.Activate(rec.ID)
	activate.Label = fmt.Sprintf("Activate window: %s", short)
	closeOne := actions.Close(rec.ID)
	closeOne.Label = fmt.Sprintf("Close window: %s", short)
	closeAll := actions.CloseAll(rec.AppKey)
	closeAll.Label = fmt.Sprintf("Close all windows of app: %s", rec.AppKey)

	return Item{
		ID:       DisplayID(rec.Title),
		Title:    rec.Title,
		Subtext:  rec.Workspace,
		AppKey:   rec.AppKey,
		IconRef:  rec.IconRef,
		Actions:  []actions.Action{activate, closeOne, closeAll},
		WindowID: rec.ID,
	}
}

// DisplayID is the hex SHA-256 of the lowercased title.
func DisplayID(title string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(title)))
	return hex.EncodeToString(sum[:])
}

// ShortTitle truncates a title to 15 runes for action labels.
func ShortTitle(title string) string {
	r := []rune(title)
	if len(r) <= shortTitleLen {
		return title
	}
	return string(r[:shortTitleLen]) + " ..."
}

// API is the query and action surface shared by an in-process Service and
// the daemon client.
type API interface {
	Query(ctx context.Context, query string) ([]Item, error)
	Dispatch(ctx context.Context, a actions.Action) (int, error)
}

var _ API = (*Service)(nil)
