// Package worklog provides MCP tools for listing and logging work on Jira issues.
package worklog

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
)

// Tool names.
const (
	ToolList = "jira_ls_worklogs"
	ToolAdd  = "jira_add_worklog"
)

// RegisterWorklogTools registers the worklog tools with the MCP server.
// jira_add_worklog is omitted in read-only mode.
func RegisterWorklogTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("Lists worklogs for a specific Jira issue, including author, time spent, start time and comment."),
		mcp.WithString("issueIdOrKey",
			mcp.Required(),
			mcp.Description(`The ID or key of the Jira issue to get worklogs from (e.g., "PROJ-123" or "10001").`),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of worklogs to return (optional)"),
		),
		mcp.WithNumber("startAt",
			mcp.Description("Index of the first worklog to return (optional)"),
		),
	}
	listOpts = append(listOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolList, listOpts...), tools.WrapWithInstrumentation(ToolList,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleListWorklogs(ctx, request, sc)
		}, sc))

	if sc.ReadOnly() {
		return nil
	}

	addOpts := []mcp.ToolOption{
		mcp.WithDescription("Adds a new worklog to a specific Jira issue. Requires the issue ID/key and the time spent, either in seconds (timeSpentSeconds) or in Jira duration notation (timeSpent). Optionally accepts a comment and start time."),
		mcp.WithString("issueIdOrKey",
			mcp.Required(),
			mcp.Description(`The ID or key of the Jira issue to add a worklog to (e.g., "PROJ-123" or "10001").`),
		),
		mcp.WithNumber("timeSpentSeconds",
			mcp.Min(1),
			mcp.Description("Time spent in seconds. For example, use 3600 for 1 hour. Mutually exclusive with timeSpent."),
		),
		mcp.WithString("timeSpent",
			mcp.Description(`Time spent in Jira duration notation, e.g. "1h 30m" or "2d". Mutually exclusive with timeSpentSeconds.`),
		),
		mcp.WithString("comment",
			mcp.Description("Optional comment to add to the worklog."),
		),
		mcp.WithString("started",
			mcp.Description("Optional start time in ISO 8601 format. Defaults to now if not provided."),
		),
	}
	addOpts = append(addOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolAdd, addOpts...), tools.WrapWithInstrumentation(ToolAdd,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleAddWorklog(ctx, request, sc)
		}, sc))

	return nil
}
