package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/teemow/dealdesk/internal/api"
	"github.com/teemow/dealdesk/internal/google"
	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/logging"
	"github.com/teemow/dealdesk/internal/resources"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/store"
	"github.com/teemow/dealdesk/internal/tools/calendar_tools"
	"github.com/teemow/dealdesk/internal/tools/google_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server that gives AI assistants
calendar availability tools.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport at /mcp, plus the REST API under
    /api/ and health checks at /healthz and /readyz

Busy intervals are read from Google Calendar. When --database-url is set they are
read from the synced calendar_events table instead.

Every flag can also be set in the config file or through a DEALDESK_ environment
variable, e.g. DEALDESK_DATABASE_DSN or DEALDESK_REDIS_ADDR.

OAuth Configuration:
  Token refresh needs --google-client-id and --google-client-secret
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars.
  Accounts are authorized with the google_get_auth_url and google_save_auth_code tools.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			return runServe(settings)
		},
	}

	cmd.Flags().String("transport", transportStdio, "Transport type: stdio or streamable-http")
	cmd.Flags().String("http-addr", ":8080", "HTTP server address (for streamable-http transport)")
	cmd.Flags().Bool("disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")
	cmd.Flags().StringSlice("allowed-origins", nil, "Origins allowed to call the REST API from a browser (CORS)")
	cmd.Flags().Bool("access-log", true, "Write REST API access logs to stderr")

	cmd.Flags().String("database-url", "", "Postgres DSN of the synced calendar store. When set, busy intervals are read from it instead of Google Calendar.")
	cmd.Flags().Bool("migrate", false, "Create the store tables on startup")
	cmd.Flags().Duration("stale-after", 15*time.Minute, "Warn when the store's last sync for an account is older than this")

	cmd.Flags().String("redis-addr", "", "Redis address for REST API rate limiting (e.g. localhost:6379). Disabled when empty.")
	cmd.Flags().Int("rate-limit", 60, "Requests allowed per client per rate window")
	cmd.Flags().Duration("rate-window", time.Minute, "Rate limit window")

	cmd.Flags().Bool("metrics-enabled", true, "Enable the metrics server on a dedicated port")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Metrics server address")

	cmd.Flags().String("google-client-id", "", "Google OAuth Client ID for token refresh. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().String("google-client-secret", "", "Google OAuth Client Secret for token refresh. Can also use GOOGLE_CLIENT_SECRET env var.")

	return cmd
}

// newLogger builds the process logger. Logs always go to stderr so the stdio
// transport keeps stdout for protocol messages.
func newLogger(settings Settings, w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return nil, err
	}
	return logging.NewLogger(w, level, settings.Log.Format)
}

func runServe(settings Settings) error {
	logger, err := newLogger(settings, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if settings.Transport != transportStdio && settings.Transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", settings.Transport, transportStdio, transportStreamableHTTP)
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configureGoogle(settings)

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	if err := instrConfig.Validate(); err != nil {
		return fmt.Errorf("invalid instrumentation configuration: %w", err)
	}

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	var auditLogger *instrumentation.AuditLogger
	if instrConfig.AuditLogging.Enabled {
		auditLogger = instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging)
	}

	var st *store.Store
	if settings.Database.DSN != "" {
		st, err = store.Open(ctx, settings.Database.DSN)
		if err != nil {
			return err
		}
		defer func() {
			if err := st.Close(); err != nil {
				logger.Warn("error closing store", logging.Err(err))
			}
		}()
		if settings.Database.Migrate {
			if err := st.Migrate(ctx); err != nil {
				return err
			}
		}
		logger.Info("reading busy intervals from the calendar store")
	}

	serverContext, err := server.NewServerContext(ctx, server.Config{
		Engine:          settings.Engine,
		Store:           st,
		StaleAfter:      settings.Database.StaleAfter,
		TokenProvider:   newTokenProvider(settings),
		Instrumentation: provider,
		AuditLogger:     auditLogger,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	mcpSrv := mcpserver.NewMCPServer("dealdesk", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false),
	)

	if err := registerAllTools(mcpSrv, serverContext); err != nil {
		return err
	}

	switch settings.Transport {
	case transportStreamableHTTP:
		logger.Info("starting dealdesk MCP server", "transport", settings.Transport, "addr", settings.HTTPAddr)
		return runStreamableHTTPServer(ctx, settings, mcpSrv, serverContext, provider)
	default:
		return runStdioServer(ctx, mcpSrv)
	}
}

// configureGoogle sets the OAuth client used for token refresh.
func configureGoogle(settings Settings) {
	if settings.Google.ClientID != "" || settings.Google.ClientSecret != "" {
		google.SetClientCredentials(settings.Google.ClientID, settings.Google.ClientSecret, "")
	}
}

// newTokenProvider prefers refresh tokens from the configuration and falls back to
// tokens saved on disk by google_save_auth_code.
func newTokenProvider(settings Settings) google.TokenProvider {
	files := google.NewFileTokenProvider()
	if len(settings.Google.RefreshTokens) == 0 {
		return files
	}
	return google.NewRefreshTokenProvider(google.GetOAuthConfig(), settings.Google.RefreshTokens, files)
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	err := mcpserver.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

// registerAllTools registers all MCP tools and resources
func registerAllTools(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext) error {
	type toolRegistration struct {
		name     string
		register func() error
	}

	registrations := []toolRegistration{
		{
			name: "Calendar",
			register: func() error {
				return calendar_tools.RegisterCalendarTools(mcpSrv, sc)
			},
		},
		{
			name: "engine resources",
			register: func() error {
				return resources.RegisterEngineResources(mcpSrv, sc)
			},
		},
		{
			name: "Google OAuth",
			register: func() error {
				return google_tools.RegisterGoogleTools(mcpSrv, sc)
			},
		},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}

	return nil
}

// newRateLimiter returns nil when no Redis address is configured.
func newRateLimiter(settings Settings) (*api.RateLimiter, io.Closer) {
	if settings.Redis.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     settings.Redis.Addr,
		Password: settings.Redis.Password,
		DB:       settings.Redis.DB,
	})
	// Fail open: a Redis outage must not take the API down.
	return api.NewRateLimiter(api.NewRedisCounter(rdb), settings.Redis.RateLimit, settings.Redis.RateWindow, true), rdb
}

// newAPI builds the REST API with the settings' middleware options.
func newAPI(settings Settings, sc *server.ServerContext, limiter *api.RateLimiter) *api.API {
	opts := []api.Option{
		api.WithMetrics(sc.Metrics()),
		api.WithLogger(sc.Logger()),
		api.WithAllowedOrigins(settings.AllowedOrigins),
	}
	if limiter != nil {
		opts = append(opts, api.WithRateLimiter(limiter))
	}
	if !settings.AccessLog {
		opts = append(opts, api.WithAccessLog(nil))
	}
	return api.NewAPI(sc.Scheduler(), opts...)
}

func runStreamableHTTPServer(ctx context.Context, settings Settings, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, provider *instrumentation.Provider) error {
	logger := sc.Logger()

	var metricsServer *server.MetricsServer
	if settings.Metrics.Enabled && provider.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    settings.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
	}

	limiter, redisClient := newRateLimiter(settings)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		logger.Info("REST API rate limiting enabled",
			"limit", settings.Redis.RateLimit,
			"window", settings.Redis.RateWindow.String())
	}

	health := server.NewHealthChecker(sc)
	httpServer, err := server.NewHTTPServer(server.HTTPServerConfig{
		Addr:             settings.HTTPAddr,
		MCPServer:        mcpSrv,
		DisableStreaming: settings.DisableStreaming,
		API:              newAPI(settings, sc, limiter).Handler(),
		Health:           health,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- httpServer.Start()
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("server stopped", logging.Err(serveErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("failed to shut down HTTP server: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			serveErr = errors.Join(serveErr, fmt.Errorf("failed to shut down metrics server: %w", err))
		}
	}
	return serveErr
}
