// Package api exposes availability over a small REST API built on gorilla/mux.
//
// Routes, all under /api:
//
//	GET  /health        liveness and the configured busy source
//	POST /availability  resolve free slots for a request body
//	GET  /busy          merged busy blocks for a calendar and window
//
// Every response is wrapped in a {status, response} envelope. Requests get an
// X-Request-ID, are counted in the HTTP metrics and can be rate limited per client
// IP with a Redis-backed fixed window.
package api
