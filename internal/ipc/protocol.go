package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/1broseidon/xswitcher/internal/platform"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandListWindows CommandType = "LIST_WINDOWS"
	CommandActivate    CommandType = "ACTIVATE"
	CommandClose       CommandType = "CLOSE"
	CommandCloseAll    CommandType = "CLOSE_ALL"
	CommandInvalidate  CommandType = "INVALIDATE"
	CommandGetStatus   CommandType = "GET_STATUS"
	CommandReload      CommandType = "RELOAD"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ListWindowsPayload is the payload of LIST_WINDOWS.
type ListWindowsPayload struct {
	Query string `json:"query"`
}

// ListWindowsData is returned by LIST_WINDOWS.
type ListWindowsData struct {
	Items []switcher.Item `json:"items"`
}

// WindowPayload targets one window (ACTIVATE, CLOSE).
type WindowPayload struct {
	WindowID platform.WindowID `json:"window_id"`
}

// AppPayload targets an application (CLOSE_ALL).
type AppPayload struct {
	AppKey string `json:"app_key"`
}

// ActionData is returned by the action commands.
type ActionData struct {
	Affected int `json:"affected"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	DaemonRunning  bool   `json:"daemon_running"`
	PID            int    `json:"pid"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	CacheTTLMillis int64  `json:"cache_ttl_ms"`
	CacheAgeMillis int64  `json:"cache_age_ms"` // -1 when nothing is cached
	Display        string `json:"display,omitempty"`
	IconDir        string `json:"icon_dir,omitempty"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
