// Package scheduling connects the availability engine to busy-interval sources.
//
// A Service normalizes a request, reads the busy intervals for the resolved window
// from its BusySource (Google Calendar or the Postgres store) unless the request
// already carries them, and renders the engine's result. Each resolution is traced
// and counted.
package scheduling
