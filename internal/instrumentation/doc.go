// Package instrumentation provides OpenTelemetry metrics, tracing and audit logging.
//
// A Provider is created once at startup from Config (populated from environment
// variables by DefaultConfig) and installed as the global meter and tracer
// provider. Its Metrics value records:
//
//   - HTTP requests (REST API, MCP streamable HTTP, health)
//   - MCP tool invocations
//   - Google Calendar API calls
//   - busy-interval fetches per source
//   - availability resolutions and the number of slots they produce
//   - rate-limited requests
//
// Metrics are exported through Prometheus (served by the metrics server), OTLP over
// HTTP, or stdout. Traces go to OTLP or stdout, or are disabled.
//
// Every Record method is safe to call on a nil or zero Metrics.
package instrumentation
