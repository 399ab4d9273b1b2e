package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/scheduling"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/tools/batch"
	"github.com/teemow/dealdesk/internal/tools/common"
)

// RegisterTeamTools registers tools that check several reps at once.
func RegisterTeamTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Check availability for several accounts with the same request window, e.g. every rep on a deal team. Each account's calendar is read separately; an account that fails (for example because it is not authorized) is reported without failing the others."),
		mcp.WithArray("accounts",
			mcp.Required(),
			mcp.Description("Account names to check. A single comma-separated string is accepted too."),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID read for every account (default: 'primary')"),
		),
	}, windowArgs()...)

	s.AddTool(mcp.NewTool("calendar_check_team_availability", opts...),
		common.InstrumentedToolHandler("calendar_check_team_availability", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCheckTeamAvailability(ctx, request, sc)
			}))

	return nil
}

func handleCheckTeamAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	accounts, err := batch.ParseStringOrArray(args["accounts"], "accounts")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	parsed, err := parseAvailabilityArgs(args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}
	// Every account is read from its own calendar.
	parsed.BusyIntervals = nil

	results := batch.ProcessBatch(ctx, accounts, func(ctx context.Context, account string) (any, error) {
		report, err := sc.Scheduler().CheckAvailability(ctx, scheduling.Request{
			Account:    account,
			CalendarID: parsed.CalendarID,
			Input:      parsed.Input,
		})
		if err != nil {
			return nil, err
		}
		return report, nil
	})

	text, err := batch.FormatResults(results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}
