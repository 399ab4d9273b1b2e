// Package server holds the shared state and HTTP plumbing of a running dealdesk
// server.
//
// ServerContext owns the scheduling service and the per-account Google Calendar
// clients, created lazily from the configured token provider. When a Postgres store
// is configured it replaces Google Calendar as the busy source.
//
// HTTPServer serves the MCP streamable-http transport at /mcp, the REST API under
// /api/ and the Kubernetes health endpoints (/healthz, /readyz, /healthz/detailed) on one
// listener. MetricsServer exposes Prometheus metrics on a separate port.
package server
