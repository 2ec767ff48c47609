package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1broseidon/xswitcher/internal/actions"
	"github.com/1broseidon/xswitcher/internal/logging"
	"github.com/1broseidon/xswitcher/internal/switcher"
)

const requestTimeout = 10 * time.Second

// Service is what the server exposes over the socket.
type Service interface {
	switcher.API
	Invalidate()
	CacheInfo() (builtAt time.Time, ttl time.Duration)
}

// ServerOptions configures a Server.
type ServerOptions struct {
	Logger *zap.Logger
	// Reload is invoked for RELOAD. Nil makes RELOAD fail.
	Reload func() error
	// Display and IconDir are reported by GET_STATUS.
	Display string
	IconDir string
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	svc          Service
	opts         ServerOptions
	logger       *zap.Logger
	startTime    time.Time
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a server that will listen on socketPath. A stale socket
// left by a previous daemon is removed.
func NewServer(socketPath string, svc Service, opts ServerOptions) *Server {
	os.Remove(socketPath)

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		socketPath: socketPath,
		svc:        svc,
		opts:       opts,
		logger:     logging.OrNop(opts.Logger),
		startTime:  time.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", zap.String("socket", s.socketPath))

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn("IPC accept error", zap.Error(err))
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) isShuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection serves one newline-terminated JSON request.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(requestTimeout))

	reader := bufio.NewReader(conn)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", zap.Error(err))
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", zap.Error(err))
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", zap.Error(err))
	}
}

func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC request", zap.String("command", string(req.Command)))
	switch req.Command {
	case CommandListWindows:
		return s.handleListWindows(ctx, req.Payload)
	case CommandActivate:
		return s.handleWindowAction(ctx, actions.KindActivate, req.Payload)
	case CommandClose:
		return s.handleWindowAction(ctx, actions.KindClose, req.Payload)
	case CommandCloseAll:
		return s.handleCloseAll(ctx, req.Payload)
	case CommandInvalidate:
		s.svc.Invalidate()
		return okResponse(nil)
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandReload:
		return s.handleReload()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) handleListWindows(ctx context.Context, payload json.RawMessage) *Response {
	var req ListWindowsPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return NewErrorResponse(fmt.Sprintf("Invalid list payload: %v", err))
		}
	}

	items, err := s.svc.Query(ctx, req.Query)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to list windows: %v", err))
	}
	return okResponse(ListWindowsData{Items: items})
}

func (s *Server) handleWindowAction(ctx context.Context, kind actions.Kind, payload json.RawMessage) *Response {
	var req WindowPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid %s payload: %v", kind, err))
	}
	return s.dispatch(ctx, actions.Action{Kind: kind, WindowID: req.WindowID})
}

func (s *Server) handleCloseAll(ctx context.Context, payload json.RawMessage) *Response {
	var req AppPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid close_all payload: %v", err))
	}
	return s.dispatch(ctx, actions.CloseAll(req.AppKey))
}

func (s *Server) dispatch(ctx context.Context, a actions.Action) *Response {
	n, err := s.svc.Dispatch(ctx, a)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to %s: %v", a.Kind, err))
	}
	return okResponse(ActionData{Affected: n})
}

func (s *Server) handleGetStatus() *Response {
	builtAt, ttl := s.svc.CacheInfo()
	age := int64(-1)
	if !builtAt.IsZero() {
		age = time.Since(builtAt).Milliseconds()
	}

	return okResponse(StatusData{
		DaemonRunning:  true,
		PID:            os.Getpid(),
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		CacheTTLMillis: ttl.Milliseconds(),
		CacheAgeMillis: age,
		Display:        s.opts.Display,
		IconDir:        s.opts.IconDir,
	})
}

func (s *Server) handleReload() *Response {
	if s.opts.Reload == nil {
		return NewErrorResponse("reload is not supported")
	}
	if err := s.opts.Reload(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.logger.Info("config reloaded")
	return okResponse(nil)
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop closes the listener, cancels in-flight requests, waits for handlers
// to return and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	os.Remove(s.socketPath)
}
