// Package resources provides MCP resources. Resources are read-only data that MCP
// clients can fetch without calling a tool; here they describe the availability
// engine's defaults and limits.
package resources
