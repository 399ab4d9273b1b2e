package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/calendar"
	"github.com/teemow/dealdesk/internal/google"
	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/logging"
	"github.com/teemow/dealdesk/internal/scheduling"
	"github.com/teemow/dealdesk/internal/store"
)

// Config holds the dependencies of a ServerContext.
type Config struct {
	// Engine is the availability engine configuration.
	Engine availability.Config

	// Store, when set, is the busy source instead of live Google Calendar reads.
	Store *store.Store

	// StaleAfter warns when the store's last sync is older than this.
	StaleAfter time.Duration

	// TokenProvider supplies Google tokens (default: tokens on disk).
	TokenProvider google.TokenProvider

	// Instrumentation provides metrics and tracing. May be nil.
	Instrumentation *instrumentation.Provider

	// AuditLogger records tool invocations. May be nil.
	AuditLogger *instrumentation.AuditLogger

	Logger *slog.Logger
}

// ServerContext holds the shared state of a running server.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	tokenProvider   google.TokenProvider
	store           *store.Store
	scheduler       *scheduling.Service
	metrics         *instrumentation.Metrics
	auditLogger     *instrumentation.AuditLogger
	logger          *slog.Logger

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a server context and its scheduling service. The service
// reads busy intervals from the store when one is configured and from Google
// Calendar otherwise.
func NewServerContext(ctx context.Context, config Config) (*ServerContext, error) {
	if err := config.Engine.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine configuration: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	if config.TokenProvider == nil {
		config.TokenProvider = google.NewFileTokenProvider()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		calendarClients: make(map[string]*calendar.Client),
		tokenProvider:   config.TokenProvider,
		store:           config.Store,
		auditLogger:     config.AuditLogger,
		logger:          config.Logger,
	}
	if config.Instrumentation != nil && config.Instrumentation.Enabled() {
		sc.metrics = config.Instrumentation.Metrics()
	}

	var (
		source     scheduling.BusySource
		sourceName string
	)
	if config.Store != nil {
		source, sourceName = config.Store, instrumentation.SourcePostgres
	} else {
		source, sourceName = scheduling.NewGoogleSource(sc), instrumentation.SourceGoogle
	}

	sc.scheduler = scheduling.NewService(source, sourceName, config.Engine,
		scheduling.WithMetrics(sc.metrics),
		scheduling.WithLogger(config.Logger),
		scheduling.WithStaleAfter(config.StaleAfter),
	)

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Scheduler returns the availability service.
func (sc *ServerContext) Scheduler() *scheduling.Service {
	return sc.scheduler
}

// Store returns the Postgres store, or nil when busy intervals come from Google.
func (sc *ServerContext) Store() *store.Store {
	return sc.store
}

// Metrics returns the metrics recorder, or nil when instrumentation is disabled.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// CalendarClientForAccount returns the cached Calendar client for account, creating
// it on first use. The error explains how to authorize an account without a token.
func (sc *ServerContext) CalendarClientForAccount(ctx context.Context, account string) (*calendar.Client, error) {
	sc.mu.RLock()
	client, ok := sc.calendarClients[account]
	sc.mu.RUnlock()
	if ok {
		return client, nil
	}

	if !calendar.HasTokenForAccountWithProvider(account, sc.tokenProvider) {
		return nil, errors.New(google.GetAuthenticationErrorMessage(account))
	}

	// The client outlives the request that created it.
	client, err := calendar.NewClientForAccountWithProvider(sc.ctx, account, sc.tokenProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}
	client.WithMetrics(sc.metrics)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.calendarClients[account]; ok {
		return existing, nil
	}
	sc.calendarClients[account] = client
	sc.logger.Debug("created calendar client", logging.Account(account))
	return client, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. The store is closed by its owner.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
