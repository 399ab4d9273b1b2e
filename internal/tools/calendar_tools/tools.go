package calendar_tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/server"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// RegisterCalendarTools registers all Calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterAvailabilityTools(s, sc); err != nil {
		return fmt.Errorf("failed to register availability tools: %w", err)
	}

	if err := RegisterTeamTools(s, sc); err != nil {
		return fmt.Errorf("failed to register team tools: %w", err)
	}

	if err := RegisterEventTools(s, sc); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}

	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}

	return nil
}

// parseTimeArg reads a required RFC 3339 argument.
func parseTimeArg(args map[string]any, name string) (time.Time, error) {
	raw, ok := args[name].(string)
	if !ok || strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s format: %v", name, err)
	}
	return t, nil
}

// parseTimeRange reads timeMin and timeMax and checks their order.
func parseTimeRange(args map[string]any) (time.Time, time.Time, error) {
	timeMin, err := parseTimeArg(args, "timeMin")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	timeMax, err := parseTimeArg(args, "timeMax")
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !timeMax.After(timeMin) {
		return time.Time{}, time.Time{}, fmt.Errorf("timeMax must be after timeMin")
	}
	return timeMin, timeMax, nil
}

// splitList splits a comma-separated argument, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
