package issue

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
)

const (
	searchPath = "/rest/api/3/search/jql"

	// DefaultOrder is appended to queries that do not sort themselves.
	DefaultOrder = "ORDER BY updated DESC"

	// DefaultListFields are requested when a search names no fields.
	DefaultListFields = "summary,issuetype,status,priority,project,assignee,reporter,created,updated"
)

var orderByPattern = regexp.MustCompile(`(?i)\border\s+by\b`)

// ListOptions select a page of issues.
type ListOptions struct {
	JQL    string
	Fields string
	Limit  int
	Cursor string
}

// ListRequest builds the search call for opts. A numeric cursor is an
// offset; anything else is passed on as Jira's nextPageToken.
func ListRequest(opts ListOptions) (api.Request, error) {
	query, err := pageQuery(opts.Limit, opts.Cursor)
	if err != nil {
		return api.Request{}, err
	}
	query["jql"] = WithDefaultOrder(opts.JQL)
	query["fields"] = DefaultListFields
	if f := strings.TrimSpace(opts.Fields); f != "" {
		query["fields"] = f
	}
	return api.Request{Method: http.MethodGet, Path: searchPath, QueryParams: query}, nil
}

// GetRequest builds the call for a single issue.
func GetRequest(issueIdOrKey, fields, expand string) api.Request {
	query := map[string]string{}
	if f := strings.TrimSpace(fields); f != "" {
		query["fields"] = f
	}
	if e := strings.TrimSpace(expand); e != "" {
		query["expand"] = e
	}
	return api.Request{Method: http.MethodGet, Path: issuePath(issueIdOrKey), QueryParams: query}
}

// WithDefaultOrder sorts jql by most recent update unless it already has
// an ORDER BY clause.
func WithDefaultOrder(jql string) string {
	jql = strings.TrimSpace(jql)
	switch {
	case jql == "":
		return DefaultOrder
	case orderByPattern.MatchString(jql):
		return jql
	default:
		return jql + " " + DefaultOrder
	}
}

func issuePath(issueIdOrKey string) string {
	return "/rest/api/3/issue/" + url.PathEscape(strings.TrimSpace(issueIdOrKey))
}

func pageQuery(limit int, cursor string) (map[string]string, error) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" || isDigits(cursor) {
		return tools.PageQuery(limit, cursor)
	}
	query, err := tools.PageQuery(limit, "")
	if err != nil {
		return nil, err
	}
	delete(query, "startAt")
	query["nextPageToken"] = cursor
	return query, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// handleListIssues handles jira_ls_issues.
func handleListIssues(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	var opts ListOptions
	var err error
	if opts.JQL, err = tools.OptionalStringArg(args, "jql"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if opts.Fields, err = tools.OptionalStringArg(args, "fields"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if opts.Limit, opts.Cursor, err = tools.PageArgs(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req, err := ListRequest(opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Render, err = tools.RenderOptionsFromArgs(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := api.NewControllerFromContext(sc).Handle(ctx, req)
	if err != nil {
		return tools.ErrorResult("search issues", err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}

// handleGetIssue handles jira_get_issue.
func handleGetIssue(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	key, err := tools.RequiredStringArg(args, "issueIdOrKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := tools.OptionalStringArg(args, "fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	expand, err := tools.OptionalStringArg(args, "expand")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := GetRequest(key, fields, expand)
	if req.Render, err = tools.RenderOptionsFromArgs(args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := api.NewControllerFromContext(sc).Handle(ctx, req)
	if err != nil {
		return tools.ErrorResult("get issue "+key, err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}
