package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/iconstore"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

const (
	ServerName    = "xswitcher"
	ServerVersion = "0.1.0"
)

// Server exposes window listing and window actions as MCP tools.
type Server struct {
	mcpServer *mcpsdk.Server
	api       switcher.API
	logger    *zap.Logger
}

// NewServer creates an MCP server over api, which is either the daemon
// client or an in-process switcher.
func NewServer(api switcher.API, logger *zap.Logger) *Server {
	s := &Server{
		api:    api,
		logger: logging.OrNop(logger),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying SDK server, e.g. to connect another transport.
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.mcpServer
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List open application windows (title, workspace, application, icon path), in window-manager order. Windows that ask to be hidden from pagers or task lists are omitted. Optionally filter with a case-insensitive substring query.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_window",
		Description: "Raise and focus a window by id. A window that has already closed is ignored and reported with affected=0.",
	}, s.handleActivateWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_window",
		Description: "Ask the window manager to close a window by id. The application may still prompt before closing. A window that has already closed is ignored.",
	}, s.handleCloseWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_app_windows",
		Description: "Close every window of an application, including windows hidden from the list. Every window is attempted even if some fail.",
	}, s.handleCloseAppWindows)
}

func (s *Server) handleListWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	items, err := s.api.Query(ctx, args.Query)
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list_windows: %w", err)
	}

	out := ListWindowsOutput{Windows: make([]WindowInfo, 0, len(items))}
	for _, it := range items {
		out.Windows = append(out.Windows, WindowInfo{
			WindowID:  uint32(it.WindowID),
			Title:     it.Title,
			Workspace: it.Subtext,
			App:       it.AppKey,
			IconPath:  iconstore.RefPath(it.IconRef),
		})
	}
	out.Count = len(out.Windows)
	return nil, out, nil
}

func (s *Server) handleActivateWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.dispatch(ctx, actions.Activate(platform.WindowID(args.WindowID)))
}

func (s *Server) handleCloseWindow(ctx context.Context, _ *mcpsdk.CallToolRequest, args WindowInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.dispatch(ctx, actions.Close(platform.WindowID(args.WindowID)))
}

func (s *Server) handleCloseAppWindows(ctx context.Context, _ *mcpsdk.CallToolRequest, args CloseAppWindowsInput) (*mcpsdk.CallToolResult, ActionOutput, error) {
	return s.dispatch(ctx, actions.CloseAll(strings.TrimSpace(args.App)))
}

func (s *Server) dispatch(ctx context.Context, a actions.Action) (*mcpsdk.CallToolResult, ActionOutput, error) {
	n, err := s.api.Dispatch(ctx, a)
	s.logger.Info("mcp action",
		zap.String("kind", string(a.Kind)),
		zap.Uint32("window", uint32(a.WindowID)),
		zap.String("app", a.AppKey),
		zap.Int("affected", n),
		zap.Error(err))
	if err != nil {
		return nil, ActionOutput{}, fmt.Errorf("%s: %w", a.Kind, err)
	}
	return nil, ActionOutput{Affected: n}, nil
}
