package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/dealdesk/internal/instrumentation"
	"github.com/teemow/dealdesk/internal/server"
)

// ToolHandler is the signature of an MCP tool handler. It is an alias so wrapped
// handlers can be passed straight to mcpserver.MCPServer.AddTool.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and audit logging.
// A result with IsError set counts as a failure.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := GetAccountFromArgs(args)

		ctx, span := instrumentation.StartToolSpan(ctx, toolName)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).
			WithAccount(account).
			WithCalendar(GetCalendarIDFromArgs(args)).
			WithSpanContext(ctx)

		result, err := handler(ctx, request)

		outcome := err
		if outcome == nil && result != nil && result.IsError {
			outcome = errors.New(resultText(result))
		}
		invocation.Complete(outcome)

		if outcome != nil {
			instrumentation.SetSpanError(span, outcome)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		// Both are nil-safe.
		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), account, time.Since(start))
		sc.AuditLogger().LogToolInvocation(ctx, invocation)

		return result, err
	}
}

// resultText returns the first text content of a tool result.
func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return "tool returned an error result"
}
