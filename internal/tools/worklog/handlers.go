package worklog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
)

// jiraTimeLayout is the timestamp layout Jira accepts for "started".
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// now is replaced in tests.
var now = time.Now

// worklogPath returns the worklog collection path for an issue.
func worklogPath(issueIdOrKey string) string {
	return "/rest/api/3/issue/" + url.PathEscape(strings.TrimSpace(issueIdOrKey)) + "/worklog"
}

// handleListWorklogs handles jira_ls_worklogs.
func handleListWorklogs(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	issue, err := tools.RequiredStringArg(args, "issueIdOrKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := map[string]string{}
	for _, key := range []string{"maxResults", "startAt"} {
		n, ok, err := tools.IntArg(args, key, 0, tools.MaxIntArg)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if ok {
			query[key] = strconv.Itoa(n)
		}
	}

	render, err := tools.RenderOptionsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := api.NewControllerFromContext(sc).Get(ctx, worklogPath(issue), query, render)
	if err != nil {
		return tools.ErrorResult("list worklogs for "+issue, err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}

// handleAddWorklog handles jira_add_worklog.
func handleAddWorklog(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	issue, err := tools.RequiredStringArg(args, "issueIdOrKey")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	seconds, hasSeconds, err := tools.IntArg(args, "timeSpentSeconds", 1, tools.MaxIntArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeSpent, err := tools.OptionalStringArg(args, "timeSpent")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeSpent = strings.TrimSpace(timeSpent)
	switch {
	case hasSeconds && timeSpent != "":
		return mcp.NewToolResultError("provide either timeSpent or timeSpentSeconds, not both"), nil
	case !hasSeconds && timeSpent == "":
		return mcp.NewToolResultError("timeSpent or timeSpentSeconds is required"), nil
	}

	comment, err := tools.OptionalStringArg(args, "comment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	startedArg, err := tools.OptionalStringArg(args, "started")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	started, err := normalizeStarted(startedArg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	render, err := tools.RenderOptionsFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]any{"started": started}
	if hasSeconds {
		body["timeSpentSeconds"] = seconds
	} else {
		body["timeSpent"] = timeSpent
	}
	if strings.TrimSpace(comment) != "" {
		body["comment"] = adfParagraph(comment)
	}

	resp, err := api.NewControllerFromContext(sc).Post(ctx, worklogPath(issue), nil, body, render)
	if err != nil {
		if errors.Is(err, api.ErrReadOnly) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return tools.ErrorResult("add worklog to "+issue, err), nil
	}
	return mcp.NewToolResultText(resp.Content), nil
}

// normalizeStarted converts an RFC 3339 timestamp to the layout Jira expects.
// An empty value selects the current time.
func normalizeStarted(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now().UTC().Format(jiraTimeLayout), nil
	}
	for _, layout := range []string{time.RFC3339Nano, jiraTimeLayout, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(jiraTimeLayout), nil
		}
	}
	return "", fmt.Errorf("started must be an ISO 8601 timestamp, got %q", s)
}

// adfParagraph wraps text in a minimal Atlassian Document Format document.
func adfParagraph(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}
