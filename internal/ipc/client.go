package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/switcher"
	"github.com/1broseidon/xswitcher/internal/xdgpath"
)

// ErrDaemonUnavailable is returned when no daemon listens on the socket.
var ErrDaemonUnavailable = errors.New("daemon is not running")

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

var _ switcher.API = (*Client)(nil)

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := xdgpath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; requests surface connection errors.
		socketPath = ""
	}
	return NewClientWithSocket(socketPath)
}

// NewClientWithSocket creates a client for a specific socket path.
func NewClientWithSocket(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response. The tighter of ctx's
// deadline and the client timeout applies.
func (c *Client) sendRequest(ctx context.Context, req *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

func (c *Client) call(ctx context.Context, cmd CommandType, payload any, out any) error {
	req := &Request{Command: cmd}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", cmd, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", cmd, err)
	}
	return nil
}

// Query lists windows matching query.
func (c *Client) Query(ctx context.Context, query string) ([]switcher.Item, error) {
	var data ListWindowsData
	if err := c.call(ctx, CommandListWindows, ListWindowsPayload{Query: query}, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// Dispatch sends an action to the daemon.
func (c *Client) Dispatch(ctx context.Context, a actions.Action) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	switch a.Kind {
	case actions.KindActivate:
		return c.Activate(ctx, a.WindowID)
	case actions.KindClose:
		return c.Close(ctx, a.WindowID)
	default:
		return c.CloseAll(ctx, a.AppKey)
	}
}

// Activate focuses a window.
func (c *Client) Activate(ctx context.Context, id platform.WindowID) (int, error) {
	var data ActionData
	err := c.call(ctx, CommandActivate, WindowPayload{WindowID: id}, &data)
	return data.Affected, err
}

// Close closes a window.
func (c *Client) Close(ctx context.Context, id platform.WindowID) (int, error) {
	var data ActionData
	err := c.call(ctx, CommandClose, WindowPayload{WindowID: id}, &data)
	return data.Affected, err
}

// CloseAll closes every window of an application.
func (c *Client) CloseAll(ctx context.Context, appKey string) (int, error) {
	var data ActionData
	err := c.call(ctx, CommandCloseAll, AppPayload{AppKey: appKey}, &data)
	return data.Affected, err
}

// Invalidate drops the daemon's cached snapshot.
func (c *Client) Invalidate(ctx context.Context) error {
	return c.call(ctx, CommandInvalidate, nil, nil)
}

// Reload asks the daemon to re-read its config.
func (c *Client) Reload(ctx context.Context) error {
	return c.call(ctx, CommandReload, nil, nil)
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus(ctx context.Context) (*StatusData, error) {
	var status StatusData
	if err := c.call(ctx, CommandGetStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetStatus(ctx)
	return err
}
