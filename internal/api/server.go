package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server wraps the HTTP server for the local API.
type Server struct {
	httpServer *http.Server
	watcher    *FileWatcher
	wsHub      *WebSocketHub
	logger     *slog.Logger
}

// NewServer creates a server on the given port. When dataDir is non-empty
// the data directory is watched and changes are pushed over /api/v1/ws.
func NewServer(handler *Handler, port int, dataDir string, logger *slog.Logger) *Server {
	logger = orDiscard(logger)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	wsHub := NewWebSocketHub(logger)
	mux.HandleFunc("GET /api/v1/ws", wsHub.ServeWS)
	handler.SetPublisher(wsHub)

	var watcher *FileWatcher
	if dataDir != "" {
		var err error
		watcher, err = NewFileWatcher(dataDir, logger)
		if err != nil {
			logger.Warn("failed to create file watcher", "error", err)
			watcher = nil
		} else {
			watcher.Subscribe(wsHub)
		}
	}

	return &Server{
		httpServer: &http.Server{
			Addr:        fmt.Sprintf("127.0.0.1:%d", port),
			Handler:     Logging(logger, Cors(mux)),
			ReadTimeout: 15 * time.Second,
			// Openings can take a while against a slow provider.
			WriteTimeout: OpenTimeout + 15*time.Second,
		},
		watcher: watcher,
		wsHub:   wsHub,
		logger:  logger,
	}
}

// Start begins listening for HTTP requests. Blocks until shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln. Blocks until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if s.watcher != nil {
		if err := s.watcher.Start(); err != nil {
			s.logger.Warn("failed to start file watcher", "error", err)
		}
	}

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Warn("failed to stop file watcher", "error", err)
		}
	}
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Hub returns the websocket hub.
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}
