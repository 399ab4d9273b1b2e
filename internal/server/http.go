package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
)

// MCPEndpointPath is where the streamable-http MCP transport is mounted.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig holds the handlers served by HTTPServer.
type HTTPServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MCPServer is served at /mcp when set.
	MCPServer *mcpserver.MCPServer

	// DisableStreaming turns off SSE responses on the MCP endpoint.
	DisableStreaming bool

	// API is mounted at /api/ when set.
	API http.Handler

	// Health registers /healthz and /readyz when set.
	Health *HealthChecker

	Logger *slog.Logger
}

// HTTPServer serves the MCP transport, the REST API and the health endpoints on one
// listener.
type HTTPServer struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// NewHTTPServer builds the mux and the underlying http.Server.
func NewHTTPServer(config HTTPServerConfig) (*HTTPServer, error) {
	if config.MCPServer == nil && config.API == nil {
		return nil, errors.New("at least one of MCP server or API handler is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	mux := http.NewServeMux()

	if config.MCPServer != nil {
		opts := []mcpserver.StreamableHTTPOption{mcpserver.WithEndpointPath(MCPEndpointPath)}
		if config.DisableStreaming {
			opts = append(opts, mcpserver.WithDisableStreaming(true))
		}
		mux.Handle(MCPEndpointPath, mcpserver.NewStreamableHTTPServer(config.MCPServer, opts...))
	}

	if config.API != nil {
		mux.Handle("/api/", config.API)
	}

	if config.Health != nil {
		config.Health.RegisterHealthEndpoints(mux)
	}

	return &HTTPServer{
		httpServer: &http.Server{
			Addr:              config.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		health: config.Health,
		logger: config.Logger,
	}, nil
}

// Handler returns the server's mux.
func (s *HTTPServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address.
func (s *HTTPServer) Addr() string {
	return s.httpServer.Addr
}

// Start listens and blocks until the server stops. It returns nil after Shutdown.
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.health != nil {
		s.health.SetReady(false)
	}
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
