package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/calendar"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/tools/common"
)

// RegisterCalendarListTools registers calendar list tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars accessible to the user, with the IDs accepted by the other calendar tools"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
	)

	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("calendar_list_calendars", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())

	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list calendars: %v", err)), nil
	}

	return mcp.NewToolResultText(formatCalendars(calendars)), nil
}

func formatCalendars(calendars []calendar.CalendarInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", cal.ID)
		fmt.Fprintf(&b, "   Access Role: %s\n", cal.AccessRole)
		if cal.Primary {
			b.WriteString("   [PRIMARY]\n")
		}
		if cal.Description != "" {
			fmt.Fprintf(&b, "   Description: %s\n", cal.Description)
		}
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, "   Time Zone: %s\n", cal.TimeZone)
		}
		b.WriteString("\n")
	}
	return b.String()
}
