package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/server"
)

// ToolHandler is the signature for MCP tool handler functions that take ServerContext.
type ToolHandler func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// errToolResult marks a call that returned an MCP error result.
var errToolResult = errors.New("tool returned an error result")

// WrapWithInstrumentation wraps a tool handler with a tool span, the tool
// invocation metrics and an audit log entry. The invocation is placed in the
// handler's context so deeper layers can record the Jira request and whether
// the response was truncated.
//
// Without an instrumentation provider the span and metrics are no-ops, and
// the audit entry is skipped.
func WrapWithInstrumentation(
	toolName string,
	handler ToolHandler,
	sc *server.ServerContext,
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		attrs := instrumentation.NewSpanAttributeBuilder().
			WithReadOnly(sc.ReadOnly()).
			Build()
		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs...)
		defer span.End()

		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if cfg := sc.Config(); cfg != nil && cfg.UserEmail != "" {
			invocation.WithUser(cfg.UserEmail)
		}
		ctx = instrumentation.ContextWithInvocation(ctx, invocation)

		result, err := handler(ctx, request, sc)

		switch {
		case err != nil:
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			// MCP tool errors are returned in the result, not as Go errors
			invocation.Complete(false, nil)
			invocation.Error = resultText(result)
			instrumentation.SetSpanError(span, errToolResult)
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), invocation.Duration)

		if provider := sc.InstrumentationProvider(); provider != nil {
			provider.AuditLogger().LogToolInvocation(invocation)
		}

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return ""
	}
	if text, ok := result.Content[0].(mcp.TextContent); ok {
		return text.Text
	}
	return ""
}
