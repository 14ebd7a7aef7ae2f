package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
)

// handleRequest handles every generic API tool.
func handleRequest(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, method string, withBody bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	path, err := tools.RequiredStringArg(args, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query, err := tools.StringMapArg(args, "queryParams")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var body map[string]any
	if withBody {
		body, err = tools.ObjectArg(args, "body")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if body == nil {
			return mcp.NewToolResultError("body is required"), nil
		}
	}

	render, err := tools.RenderOptionsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := NewControllerFromContext(sc).Handle(ctx, Request{
		Method:      method,
		Path:        path,
		QueryParams: query,
		Body:        body,
		Render:      render,
	})
	if err != nil {
		if errors.Is(err, ErrReadOnly) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return tools.ErrorResult(fmt.Sprintf("make %s request", strings.ToUpper(method)), err), nil
	}

	return mcp.NewToolResultText(resp.Content), nil
}
