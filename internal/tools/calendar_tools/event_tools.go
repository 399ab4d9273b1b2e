package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/calendar"
	"github.com/teemow/dealdesk/internal/scheduling"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List/search calendar events within a time range. Events that do not block time (declined, transparent, all-day) are marked."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query to filter events"),
		),
	)

	s.AddTool(listEventsTool, common.InstrumentedToolHandler("calendar_list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	calendarID := common.GetCalendarIDFromArgs(args)
	if calendarID == "" {
		calendarID = scheduling.DefaultCalendarID
	}

	timeMin, timeMax, err := parseTimeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, _ := args["query"].(string)

	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.ListEvents(ctx, calendarID, timeMin, timeMax, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	return mcp.NewToolResultText(formatEvents(events, timeMin.Location())), nil
}

func formatEvents(events []calendar.EventSummary, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, event.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", event.ID)
		if event.AllDay {
			fmt.Fprintf(&b, "   Date: %s (all day)\n", event.Start.Format(time.DateOnly))
		} else {
			fmt.Fprintf(&b, "   Start: %s\n", event.Start.In(loc).Format(time.RFC3339))
			fmt.Fprintf(&b, "   End: %s\n", event.End.In(loc).Format(time.RFC3339))
		}
		if event.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", event.Location)
		}
		if event.Organizer != "" {
			fmt.Fprintf(&b, "   Organizer: %s\n", event.Organizer)
		}
		if len(event.Attendees) > 0 {
			fmt.Fprintf(&b, "   Attendees: %d\n", len(event.Attendees))
		}
		if !event.BlocksTime() {
			b.WriteString("   [DOES NOT BLOCK TIME]\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
