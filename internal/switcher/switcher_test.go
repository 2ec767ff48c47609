package switcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/iconstore"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/platform/platformtest"
	"github.com/1broseidon/xswitcher/internal/snapshot"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestService(t *testing.T, backend platform.Backend, c *clock) *Service {
	t.Helper()
	store, err := iconstore.New(t.TempDir(), iconstore.Options{Size: 16})
	require.NoError(t, err)
	return NewStack(backend, store, StackOptions{TTL: snapshot.DefaultTTL, Now: c.now})
}

func titles(items []Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestQuery_MatchesTitleWorkspaceAndApp(t *testing.T) {
	backend := platformtest.New(
		platformtest.Window(1, "Inbox - Mail", "Thunderbird", "comms"),
		platformtest.Window(2, "README.md", "Code", "dev"),
		platformtest.Window(3, "GitHub", "Firefox", "web"),
	)
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})
	ctx := context.Background()

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Inbox - Mail", "README.md", "GitHub"}},
		{"   ", []string{"Inbox - Mail", "README.md", "GitHub"}},
		{"readme", []string{"README.md"}},
		{"  DEV ", []string{"README.md"}},
		{"firefox", []string{"GitHub"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			items, err := svc.Query(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(items))
		})
	}
	assert.Equal(t, 1, backend.ListCalls(), "queries within the TTL share one snapshot")
}

func TestQuery_ItemShape(t *testing.T) {
	backend := platformtest.New(platformtest.Window(7, "A Very Long Window Title", "Firefox", "web"))
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})

	items, err := svc.Query(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.Equal(t, DisplayID("a very long window title"), it.ID)
	assert.Len(t, it.ID, 64)
	assert.Equal(t, "web", it.Subtext)
	assert.Equal(t, "firefox", it.AppKey)
	assert.Equal(t, platform.WindowID(7), it.WindowID)
	assert.True(t, strings.HasPrefix(it.IconRef, iconstore.RefPrefix))

	require.Len(t, it.Actions, 3)
	assert.Equal(t, actions.KindActivate, it.Actions[0].Kind)
	assert.Equal(t, "Activate window: A Very Long Win ...", it.Actions[0].Label)
	assert.Equal(t, actions.KindClose, it.Actions[1].Kind)
	assert.Equal(t, "Close window: A Very Long Win ...", it.Actions[1].Label)
	assert.Equal(t, actions.KindCloseAll, it.Actions[2].Kind)
	assert.Equal(t, "firefox", it.Actions[2].AppKey)
	assert.Equal(t, "Close all windows of app: firefox", it.Actions[2].Label)
}

func TestQuery_RebuildsAfterTTL(t *testing.T) {
	backend := platformtest.New(platformtest.Window(1, "one", "a", "ws"))
	c := &clock{t: time.Unix(100, 0)}
	svc := newTestService(t, backend, c)
	ctx := context.Background()

	_, err := svc.Query(ctx, "")
	require.NoError(t, err)

	backend.SetWindows(platformtest.Window(1, "one", "a", "ws"), platformtest.Window(2, "two", "b", "ws"))
	c.t = c.t.Add(time.Second)
	items, err := svc.Query(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 1, "stale within TTL")

	c.t = c.t.Add(snapshot.DefaultTTL)
	items, err = svc.Query(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 2, backend.ListCalls())
}

func TestDispatch_CloseInvalidatesCache(t *testing.T) {
	backend := platformtest.New(
		platformtest.Window(1, "one", "a", "ws"),
		platformtest.Window(2, "two", "a", "ws"),
	)
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})
	ctx := context.Background()

	items, err := svc.Query(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 2)

	n, err := svc.Dispatch(ctx, items[0].Actions[1])
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	items, err = svc.Query(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"two"}, titles(items))
}

func TestDispatch_ActivateKeepsCache(t *testing.T) {
	backend := platformtest.New(platformtest.Window(1, "one", "a", "ws"))
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})
	ctx := context.Background()

	items, err := svc.Query(ctx, "")
	require.NoError(t, err)
	_, err = svc.Dispatch(ctx, items[0].Actions[0])
	require.NoError(t, err)
	_, err = svc.Query(ctx, "")
	require.NoError(t, err)

	// One enumeration for the snapshot, one for the activate lookup.
	assert.Equal(t, 2, backend.ListCalls())
	require.Len(t, backend.Activated(), 1)
}

func TestInvalidate(t *testing.T) {
	backend := platformtest.New(platformtest.Window(1, "one", "a", "ws"))
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})
	ctx := context.Background()

	_, err := svc.Query(ctx, "")
	require.NoError(t, err)
	builtAt, ttl := svc.CacheInfo()
	assert.Equal(t, time.Unix(100, 0), builtAt)
	assert.Equal(t, snapshot.DefaultTTL, ttl)

	svc.Invalidate()
	builtAt, _ = svc.CacheInfo()
	assert.True(t, builtAt.IsZero())

	_, err = svc.Query(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, backend.ListCalls())
}

func TestQuery_NoSession(t *testing.T) {
	backend := platformtest.New()
	backend.SetNoSession(true)
	svc := newTestService(t, backend, &clock{t: time.Unix(100, 0)})

	items, err := svc.Query(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMatch_NilSnapshot(t *testing.T) {
	assert.Empty(t, Match(nil, "a"))
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "short", ShortTitle("short"))
	assert.Equal(t, "exactly15chars!", ShortTitle("exactly15chars!"))
	assert.Equal(t, "ééééééééééééééé ...", ShortTitle(strings.Repeat("é", 20)))
}

func TestDisplayID_CaseInsensitive(t *testing.T) {
	assert.Equal(t, DisplayID("Hello"), DisplayID("hELLO"))
	assert.NotEqual(t, DisplayID("Hello"), DisplayID("World"))
}
