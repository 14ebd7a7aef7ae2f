// Package project provides MCP tools for listing and reading Jira projects.
package project

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
)

// Tool names.
const (
	ToolList = "jira_ls_projects"
	ToolGet  = "jira_get_project"
)

// RegisterProjectTools registers the project tools with the MCP server.
func RegisterProjectTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listOpts := []mcp.ToolOption{
		mcp.WithDescription("List Jira projects visible to the account, with description and lead. Use it to find project keys for JQL and jira_get_project."),
		mcp.WithString("name",
			mcp.Description("Filter projects whose key or name contains this text (case-insensitive)."),
		),
	}
	listOpts = append(listOpts, tools.PageParams("")...)
	listOpts = append(listOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolList, listOpts...), tools.WrapWithInstrumentation(ToolList,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleListProjects(ctx, request, sc)
		}, sc))

	getOpts := []mcp.ToolOption{
		mcp.WithDescription("Get a Jira project by key or ID, including its description, lead, issue types, components and versions."),
		mcp.WithString("projectKeyOrId",
			mcp.Required(),
			mcp.Description(`The key or ID of the project (e.g., "PROJ" or "10000").`),
		),
	}
	getOpts = append(getOpts, tools.OutputParams()...)

	s.AddTool(mcp.NewTool(ToolGet, getOpts...), tools.WrapWithInstrumentation(ToolGet,
		func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleGetProject(ctx, request, sc)
		}, sc))

	return nil
}
