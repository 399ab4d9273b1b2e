package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/calendar"
	"github.com/teemow/dealdesk/internal/scheduling"
	"github.com/teemow/dealdesk/internal/server"
	"github.com/teemow/dealdesk/internal/tools/common"
)

// RegisterAvailabilityTools registers the availability and free/busy tools.
func RegisterAvailabilityTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	checkAvailabilityOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Find open meeting slots. Accepts a natural-language window such as 'next week', 'tomorrow for 30 minutes' or 'friday evening', or explicit start/end instants. Returns available slots, busy blocks and a summary as JSON."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	}, windowArgs()...)
	checkAvailabilityOpts = append(checkAvailabilityOpts,
		mcp.WithArray("busyIntervals",
			mcp.Description("Busy intervals to use instead of reading the calendar"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"start": map[string]any{"type": "string", "description": "RFC3339 start"},
					"end":   map[string]any{"type": "string", "description": "RFC3339 end"},
					"id":    map[string]any{"type": "string"},
					"title": map[string]any{"type": "string"},
				},
				"required": []string{"start", "end"},
			}),
		),
	)
	checkAvailabilityTool := mcp.NewTool("calendar_check_availability", checkAvailabilityOpts...)

	s.AddTool(checkAvailabilityTool, common.InstrumentedToolHandler("calendar_check_availability", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckAvailability(ctx, request, sc)
		}))

	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Return merged busy blocks in a time range. Without 'calendars' it reads the account's calendar; with 'calendars' it queries Google free/busy for each listed calendar or attendee and also returns their union."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 format, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 format, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("calendars",
			mcp.Description("Comma-separated list of calendar IDs or email addresses to check"),
		),
	)

	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandler("calendar_query_freebusy", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	return nil
}

// windowArgs are the request-window arguments shared by the availability tools.
func windowArgs() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("naturalLanguageQuery",
			mcp.Description("Free-text description of when to meet, e.g. 'next tuesday early morning for 45 minutes'"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone, e.g. 'America/New_York' (default: server default timezone)"),
		),
		mcp.WithString("nowInstant",
			mcp.Description("Reference instant for relative phrases (RFC3339, default: now)"),
		),
		mcp.WithString("explicitStart",
			mcp.Description("Window start (RFC3339). Skips natural-language inference."),
		),
		mcp.WithString("explicitEnd",
			mcp.Description("Window end (RFC3339). Skips natural-language inference."),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes, clamped to 15-240 (default: 60)"),
		),
		mcp.WithString("workingHoursStart",
			mcp.Description("Start of working hours, HH:MM (default: 09:00)"),
		),
		mcp.WithString("workingHoursEnd",
			mcp.Description("End of working hours, HH:MM (default: 17:00)"),
		),
		mcp.WithBoolean("excludeWeekends",
			mcp.Description("Skip Saturdays and Sundays (default: true)"),
		),
	}
}

// availabilityArgs mirrors the tool arguments; Input carries the JSON names of the
// request contract.
type availabilityArgs struct {
	availability.Input
	Account    string `json:"account"`
	CalendarID string `json:"calendarId"`
}

func parseAvailabilityArgs(args map[string]any) (availabilityArgs, error) {
	var parsed availabilityArgs
	// Clients often send "" for unset optional fields.
	cleaned := make(map[string]any, len(args))
	for k, v := range args {
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		cleaned[k] = v
	}
	data, err := json.Marshal(cleaned)
	if err != nil {
		return parsed, err
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return parsed, err
	}
	return parsed, nil
}

func handleCheckAvailability(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	parsed, err := parseAvailabilityArgs(args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid arguments: %v", err)), nil
	}

	report, err := sc.Scheduler().CheckAvailability(ctx, scheduling.Request{
		Account:    common.GetAccountFromArgs(args),
		CalendarID: parsed.CalendarID,
		Input:      parsed.Input,
	})
	if err != nil {
		return toolError("Failed to check availability", err), nil
	}

	return jsonResult(report)
}

type freeBusyCalendar struct {
	Calendar         string                  `json:"calendar"`
	Busy             []availability.BusyView `json:"busy"`
	TotalBusyMinutes int                     `json:"totalBusyMinutes"`
	Errors           []string                `json:"errors,omitempty"`
}

type freeBusyResult struct {
	TimeMin   string             `json:"timeMin"`
	TimeMax   string             `json:"timeMax"`
	Calendars []freeBusyCalendar `json:"calendars"`
	// Combined is the union of every calendar's busy time.
	Combined *freeBusyCalendar `json:"combined,omitempty"`
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	timeMin, timeMax, err := parseTimeRange(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc := timeMin.Location()

	result := freeBusyResult{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
	}

	calendars, _ := args["calendars"].(string)
	ids := splitList(calendars)
	if len(ids) == 0 {
		calendarID := common.GetCalendarIDFromArgs(args)
		if calendarID == "" {
			calendarID = scheduling.DefaultCalendarID
		}
		busy, err := sc.Scheduler().BusyBlocks(ctx, account, calendarID, timeMin, timeMax)
		if err != nil {
			return toolError("Failed to query free/busy", err), nil
		}
		result.Calendars = []freeBusyCalendar{newFreeBusyCalendar(calendarID, busy, nil, loc)}
		return jsonResult(result)
	}

	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := client.QueryFreeBusy(ctx, timeMin, timeMax, ids)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to query free/busy: %v", err)), nil
	}

	var all []availability.BusyInterval
	for _, info := range infos {
		busy := freeBusyIntervals(info)
		all = append(all, busy...)
		merged := availability.MergeIntervals(busy)
		result.Calendars = append(result.Calendars, newFreeBusyCalendar(info.Calendar, merged, info.Errors, loc))
	}
	combined := newFreeBusyCalendar("combined", availability.MergeIntervals(all), nil, loc)
	result.Combined = &combined

	return jsonResult(result)
}

func freeBusyIntervals(info calendar.FreeBusyInfo) []availability.BusyInterval {
	busy := make([]availability.BusyInterval, 0, len(info.Busy))
	for _, r := range info.Busy {
		busy = append(busy, availability.BusyInterval{Start: r.Start, End: r.End})
	}
	return availability.FilterValid(busy)
}

func newFreeBusyCalendar(id string, busy []availability.BusyInterval, errs []string, loc *time.Location) freeBusyCalendar {
	total := 0
	for _, b := range busy {
		total += int(b.Duration() / time.Minute)
	}
	return freeBusyCalendar{
		Calendar:         id,
		Busy:             availability.BusyViews(busy, loc),
		TotalBusyMinutes: total,
		Errors:           errs,
	}
}

// toolError turns a scheduling error into a user-facing tool result.
func toolError(prefix string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, availability.ErrUnknownTimezone):
		return mcp.NewToolResultError(err.Error())
	case errors.Is(err, scheduling.ErrNoBusySource):
		return mcp.NewToolResultError("busyIntervals are required: no calendar source is configured")
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
	}
}
