package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/xswitcher/internal/iconstore"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/platform/platformtest"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

func connect(t *testing.T, backend *platformtest.Backend) *mcpsdk.ClientSession {
	t.Helper()
	ctx := context.Background()

	store, err := iconstore.New(t.TempDir(), iconstore.Options{Size: 16})
	require.NoError(t, err)
	svc := switcher.NewStack(backend, store, switcher.StackOptions{TTL: time.Minute})
	srv := NewServer(svc, nil)

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { serverSession.Close() })

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool[T any](t *testing.T, session *mcpsdk.ClientSession, name string, args map[string]any) (T, *mcpsdk.CallToolResult) {
	t.Helper()
	var out T
	res, err := session.CallTool(context.Background(), &mcpsdk.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if res.IsError || res.StructuredContent == nil {
		return out, res
	}
	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	return out, res
}

func newBackend() *platformtest.Backend {
	return platformtest.New(
		platformtest.Window(10, "Inbox", "Thunderbird", "mail"),
		platformtest.Window(11, "Docs", "Firefox", "web"),
		platformtest.Window(12, "Search", "firefox", "web"),
	)
}

func TestTools_Registered(t *testing.T) {
	session := connect(t, newBackend())

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_windows", "activate_window", "close_window", "close_app_windows"}, names)
}

func TestListWindows(t *testing.T) {
	session := connect(t, newBackend())

	out, res := callTool[ListWindowsOutput](t, session, "list_windows", map[string]any{})
	require.False(t, res.IsError)
	require.Equal(t, 3, out.Count)
	assert.Equal(t, WindowInfo{WindowID: 10, Title: "Inbox", Workspace: "mail", App: "thunderbird", IconPath: out.Windows[0].IconPath}, out.Windows[0])
	assert.NotEmpty(t, out.Windows[0].IconPath)
	assert.NotContains(t, out.Windows[0].IconPath, iconstore.RefPrefix)

	out, _ = callTool[ListWindowsOutput](t, session, "list_windows", map[string]any{"query": "FIRE"})
	assert.Equal(t, 2, out.Count)
}

func TestActivateAndCloseWindow(t *testing.T) {
	backend := newBackend()
	session := connect(t, backend)

	out, res := callTool[ActionOutput](t, session, "activate_window", map[string]any{"window_id": 11})
	require.False(t, res.IsError)
	assert.Equal(t, 1, out.Affected)
	require.Len(t, backend.Activated(), 1)

	out, _ = callTool[ActionOutput](t, session, "close_window", map[string]any{"window_id": 999999})
	assert.Equal(t, 0, out.Affected)

	out, _ = callTool[ActionOutput](t, session, "close_window", map[string]any{"window_id": 10})
	assert.Equal(t, 1, out.Affected)
	assert.Equal(t, []platform.WindowID{11, 12}, backend.Live())
}

func TestCloseAppWindows(t *testing.T) {
	backend := newBackend()
	session := connect(t, backend)

	out, res := callTool[ActionOutput](t, session, "close_app_windows", map[string]any{"app": "Firefox"})
	require.False(t, res.IsError)
	assert.Equal(t, 2, out.Affected)
	assert.Equal(t, []platform.WindowID{10}, backend.Live())
}

func TestInvalidActionIsToolError(t *testing.T) {
	session := connect(t, newBackend())

	_, res := callTool[ActionOutput](t, session, "close_app_windows", map[string]any{"app": "  "})
	assert.True(t, res.IsError)
}
