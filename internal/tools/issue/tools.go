// Package issue provides MCP tools for searching and reading Jira issues.
package issue

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
)

// Tool names.
const (
	ToolList = "jira_ls_issues"
	ToolGet  = "jira_get_issue"
)

const listDescription = `Search for Jira issues using JQL (Jira Query Language), with pagination.

Use this to find issue keys for jira_get_issue. Issues are sorted by most recently updated first unless the JQL has its own ORDER BY clause.

Examples: project = TEAM AND status = 'In Progress', assignee = currentUser() AND resolution = Unresolved, text ~ 'performance issue'`

// RegisterIssueTools registers the issue tools with the MCP server.
func RegisterIssueTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription(listDescription),
		mcp.WithString("jql",
			mcp.Description("JQL query. Empty returns all visible issues."),
		),
		mcp.WithString("fields",
			mcp.Description("Comma-separated issue fields to return. Defaults to "+DefaultListFields+"."),
		),
	}
	listOpts = append(listOpts, tools.PageParams(`Pagination cursor from the previous page: an item index such as "50", or the nextPageToken Jira returned.`)...)
	listOpts = append(listOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolList, listOpts...), tools.WrapWithInstrumentation(ToolList,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleListIssues(ctx, request, sc)
		}, sc))

	getOpts := []mcp.ToolOption{
		mcp.WithDescription("Get a Jira issue by ID or key, including its summary, description, status, priority, assignee, reporter, comments and all standard fields."),
		mcp.WithString("issueIdOrKey",
			mcp.Required(),
			mcp.Description(`The ID or key of the issue (e.g., "PROJ-123" or "10001").`),
		),
		mcp.WithString("fields",
			mcp.Description("Comma-separated fields to return (optional, all navigable fields by default)."),
		),
		mcp.WithString("expand",
			mcp.Description(`Comma-separated entities to expand, e.g. "changelog,renderedFields" (optional).`),
		),
	}
	getOpts = append(getOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolGet, getOpts...), tools.WrapWithInstrumentation(ToolGet,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleGetIssue(ctx, request, sc)
		}, sc))

	return nil
}
