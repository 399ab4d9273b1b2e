package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/dealdesk/internal/availability"
	"github.com/teemow/dealdesk/internal/server"
)

// EngineConfigURI identifies the engine settings resource.
const EngineConfigURI = "config://availability/engine"

// engineConfigView is the client-facing shape of the engine settings.
type engineConfigView struct {
	DefaultTimezone        string                    `json:"defaultTimezone"`
	DefaultDurationMinutes int                       `json:"defaultDurationMinutes"`
	MinDurationMinutes     int                       `json:"minDurationMinutes"`
	MaxDurationMinutes     int                       `json:"maxDurationMinutes"`
	WorkingHours           availability.WorkingHours `json:"workingHours"`
	MaxRangeDays           int                       `json:"maxRangeDays"`
	MaxSlots               int                       `json:"maxSlots"`
	DefaultWindowDays      int                       `json:"defaultWindowDays"`
	GranularityMinutes     []int                     `json:"granularityMinutes"`
	BusySource             string                    `json:"busySource"`
}

// RegisterEngineResources registers read-only resources describing how availability
// requests are resolved, so a client can explain defaults before calling a tool.
func RegisterEngineResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	engineResource := mcp.NewResource(
		EngineConfigURI,
		"Availability Engine Settings",
		mcp.WithResourceDescription("Defaults and limits applied to availability requests: timezone, meeting duration, working hours, range and slot caps, and the busy interval source"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(engineResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleEngineConfig(ctx, request, sc)
	})

	return nil
}

func handleEngineConfig(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	scheduler := sc.Scheduler()
	cfg := scheduler.Config()

	view := engineConfigView{
		DefaultTimezone:        cfg.DefaultTimezone,
		DefaultDurationMinutes: cfg.DefaultDurationMinutes,
		MinDurationMinutes:     cfg.MinDurationMinutes,
		MaxDurationMinutes:     cfg.MaxDurationMinutes,
		WorkingHours:           cfg.WorkingHours,
		MaxRangeDays:           cfg.MaxRangeDays,
		MaxSlots:               cfg.MaxSlots,
		DefaultWindowDays:      cfg.DefaultWindowDays,
		BusySource:             scheduler.SourceName(),
	}
	for _, g := range []time.Duration{cfg.PrimaryGranularity, cfg.SecondaryGranularity} {
		if g > 0 {
			view.GranularityMinutes = append(view.GranularityMinutes, int(g/time.Minute))
		}
	}

	jsonData, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal engine settings: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
