package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/scheduling"
)

// PathPrefix is where the REST API is mounted.
const PathPrefix = "/api"

// API serves the availability REST endpoints.
type API struct {
	root    *mux.Router
	router  *mux.Router
	service *scheduling.Service
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	limiter *RateLimiter

	accessLog      io.Writer
	allowedOrigins []string
}

// Option configures an API.
type Option func(*API)

// WithMetrics records HTTP request metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *API) { a.metrics = m }
}

// WithLogger sets the logger for handler errors.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) { a.logger = l }
}

// WithRateLimiter rejects clients that exceed the limiter's budget.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(a *API) { a.limiter = rl }
}

// WithAccessLog writes Apache-style access logs to w. A nil writer disables them.
func WithAccessLog(w io.Writer) Option {
	return func(a *API) { a.accessLog = w }
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins []string) Option {
	return func(a *API) { a.allowedOrigins = origins }
}

// NewAPI creates the API and registers its routes.
func NewAPI(service *scheduling.Service, opts ...Option) *API {
	root := mux.NewRouter()
	a := &API{
		root:      root,
		router:    root.PathPrefix(PathPrefix).Subrouter(),
		service:   service,
		logger:    slog.Default(),
		accessLog: os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}

	// Method mismatches inside the /api subrouter would otherwise surface as 404.
	notAllowed := http.HandlerFunc(a.methodNotAllowed)
	a.root.MethodNotAllowedHandler = notAllowed
	a.router.MethodNotAllowedHandler = notAllowed

	a.router.Use(requestIDMiddleware, a.metricsMiddleware)
	if a.limiter != nil {
		a.router.Use(a.limiter.Middleware(a.logger, a.metrics))
	}
	a.registerRoutes()
	return a
}

func (a *API) registerRoutes() {
	a.router.HandleFunc("/health", a.health).Methods(http.MethodGet)
	a.router.HandleFunc("/availability", a.checkAvailability).Methods(http.MethodPost)
	a.router.HandleFunc("/busy", a.busyBlocks).Methods(http.MethodGet)
}

// Router returns the bare router, without access logging or CORS.
func (a *API) Router() *mux.Router {
	return a.root
}

// Handler returns the router wrapped with access logging and CORS.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.root
	if a.accessLog != nil {
		h = handlers.LoggingHandler(a.accessLog, h)
	}
	if len(a.allowedOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(a.allowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
			handlers.ExposedHeaders([]string{RequestIDHeader}),
		)(h)
	}
	return h
}

// Response is the envelope of every API reply.
type Response struct {
	Status   int `json:"status"`
	Response any `json:"response"`
}

// ErrorBody is the response payload of a failed request.
type ErrorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Response writes data wrapped in the envelope.
func (a *API) Response(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Status: status, Response: data}); err != nil {
		a.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func (a *API) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	a.errorResponse(w, r, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed on %s", r.Method, r.URL.Path))
}

func (a *API) errorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	a.Response(w, status, ErrorBody{Error: msg, RequestID: RequestIDFromContext(r.Context())})
}
