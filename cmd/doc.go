// Package cmd implements the command-line interface for dealdesk.
//
// This package provides the following commands:
//   - serve: Start the MCP server (stdio or streamable HTTP with the REST API)
//   - availability: Resolve a single availability request and print the report
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// Settings are layered by viper: flags override DEALDESK_ environment
// variables, which override the optional dealdesk.yaml config file.
package cmd
