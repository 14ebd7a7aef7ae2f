package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// ErrorResult converts err into an MCP error result. Jira API errors keep
// their status and remediation hint; anything else is prefixed with action.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	var apiErr *jira.APIError
	switch {
	case errors.As(err, &apiErr):
		return mcp.NewToolResultError(fmt.Sprintf("Error: %s", apiErr.Error()))
	case errors.Is(err, jira.ErrCredentialsMissing):
		return mcp.NewToolResultError("Error: Atlassian credentials are missing. Set ATLASSIAN_SITE_NAME, ATLASSIAN_USER_EMAIL and ATLASSIAN_API_TOKEN.")
	default:
		return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
	}
}

// RenderObserver returns an output.RenderObserver that records each render
// in m and marks truncation on the current tool invocation.
func RenderObserver(m *instrumentation.Metrics) output.RenderObserver {
	return func(ctx context.Context, r *output.RenderResult) {
		m.RecordRender(ctx, instrumentation.RenderStats{
			Format:          r.Format.String(),
			FilterError:     r.FilterError != nil,
			CompactFallback: r.CompactFallback,
			Truncated:       r.Truncated(),
			EncodedChars:    r.EncodedChars,
		})
		instrumentation.InvocationFromContext(ctx).WithTruncated(r.Truncated())
	}
}
