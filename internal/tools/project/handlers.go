package project

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
)

const (
	searchPath = "/rest/api/3/project/search"

	listExpand = "description,lead"
	getExpand  = "description,lead,issueTypes"
)

// ListRequest builds the project search call. name filters on key and name.
func ListRequest(name string, limit int, cursor string) (api.Request, error) {
	query, err := tools.PageQuery(limit, cursor)
	if err != nil {
		return api.Request{}, err
	}
	query["expand"] = listExpand
	if n := strings.TrimSpace(name); n != "" {
		query["query"] = n
	}
	return api.Request{Method: http.MethodGet, Path: searchPath, QueryParams: query}, nil
}

// GetRequest builds the call for a single project.
func GetRequest(projectKeyOrId string) api.Request {
	return api.Request{
		Method:      http.MethodGet,
		Path:        "/rest/api/3/project/" + url.PathEscape(strings.TrimSpace(projectKeyOrId)),
		QueryParams: map[string]string{"expand": getExpand},
	}
}

// handleListProjects handles jira_ls_projects.
func handleListProjects(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	name, err := tools.OptionalStringArg(args, "name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, cursor, err := tools.PageArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req, err := ListRequest(name, limit, cursor)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Render, err = tools.RenderOptionsFromArgs(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := api.NewControllerFromContext(sc).Handle(ctx, req)
	if err != nil {
		return tools.ErrorResult("list projects", err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}

// handleGetProject handles jira_get_project.
func handleGetProject(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	key, err := tools.RequiredStringArg(args, "projectKeyOrId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := GetRequest(key)
	if req.Render, err = tools.RenderOptionsFromArgs(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := api.NewControllerFromContext(sc).Handle(ctx, req)
	if err != nil {
		return tools.ErrorResult("get project "+key, err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}
