// Package calendar_tools provides MCP (Model Context Protocol) tools for reading
// Google Calendar and resolving meeting availability.
//
// calendar_check_availability is the main entry point: it accepts a natural-language
// window or explicit instants and returns open slots, busy blocks and a summary as
// JSON. calendar_check_team_availability runs the same request for several accounts
// and reports per-account failures without failing the call. The remaining tools are read-only views that help an assistant pick the
// account, calendar and range to check.
package calendar_tools
