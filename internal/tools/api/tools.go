package api

import (
	"context"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
)

// Tool names.
const (
	ToolGet    = "jira_get"
	ToolPost   = "jira_post"
	ToolPut    = "jira_put"
	ToolPatch  = "jira_patch"
	ToolDelete = "jira_delete"
)

const apiReference = `

API reference: https://developer.atlassian.com/cloud/jira/platform/rest/v3/`

const getDescription = `Read any Jira data. Returns TOON (or JSON), optionally filtered with JMESPath (jq param).

**Common paths:**
- /rest/api/3/project - list all projects
- /rest/api/3/project/{projectKeyOrId} - get project details
- /rest/api/3/search/jql - search issues with JQL (use the jql query param)
- /rest/api/3/issue/{issueIdOrKey} - get issue details
- /rest/api/3/issue/{issueIdOrKey}/comment - list issue comments
- /rest/api/3/issue/{issueIdOrKey}/transitions - get available transitions
- /rest/api/3/user/search - search users (use the query param)
- /rest/api/3/status, /rest/api/3/issuetype, /rest/api/3/priority

**Query params:** maxResults (page size), startAt (offset), jql, fields (field selection), expand

**Example JQL:** project=PROJ, assignee=currentUser(), status="In Progress", created >= -7d` + apiReference

const postDescription = `Create Jira resources. Returns TOON (or JSON), optionally filtered with JMESPath (jq param).

**Common operations:**
1. Create issue: /rest/api/3/issue
   body: {"fields": {"project": {"key": "PROJ"}, "summary": "Issue title", "issuetype": {"name": "Task"}}}
2. Add comment: /rest/api/3/issue/{issueIdOrKey}/comment
   body: {"body": {"type": "doc", "version": 1, "content": [{"type": "paragraph", "content": [{"type": "text", "text": "Comment text"}]}]}}
3. Transition issue: /rest/api/3/issue/{issueIdOrKey}/transitions
   body: {"transition": {"id": "31"}}` + apiReference

const putDescription = `Replace Jira resources (full update). Returns TOON (or JSON), optionally filtered with JMESPath (jq param).

**Common operations:**
1. Update issue: /rest/api/3/issue/{issueIdOrKey}
   body: {"fields": {"summary": "New title"}}
2. Set issue property: /rest/api/3/issue/{issueIdOrKey}/properties/{propertyKey}
   body: {"value": "property value"}

Note: PUT replaces the entire resource. For partial updates, prefer PATCH.` + apiReference

const patchDescription = `Partially update Jira resources. Returns TOON (or JSON), optionally filtered with JMESPath (jq param).

**Common operations:**
1. Update comment: /rest/api/3/issue/{issueIdOrKey}/comment/{commentId}
2. Update worklog: /rest/api/3/issue/{issueIdOrKey}/worklog/{worklogId}
   body: {"timeSpentSeconds": 7200}

Note: PATCH only updates the fields you specify.` + apiReference

const deleteDescription = `Delete Jira resources. Returns TOON (or JSON) if any, optionally filtered with JMESPath (jq param).

**Common operations:**
1. Delete issue: /rest/api/3/issue/{issueIdOrKey} (query param deleteSubtasks=true to delete subtasks)
2. Delete comment: /rest/api/3/issue/{issueIdOrKey}/comment/{commentId}
3. Remove watcher: /rest/api/3/issue/{issueIdOrKey}/watchers (query param accountId)

Note: Most DELETE endpoints return 204 No Content on success.` + apiReference

// toolSpec describes one generic API tool.
type toolSpec struct {
	name        string
	method      string
	description string
	withBody    bool
}

var toolSpecs = []toolSpec{
	{name: ToolGet, method: http.MethodGet, description: getDescription},
	{name: ToolPost, method: http.MethodPost, description: postDescription, withBody: true},
	{name: ToolPut, method: http.MethodPut, description: putDescription, withBody: true},
	{name: ToolPatch, method: http.MethodPatch, description: patchDescription, withBody: true},
	{name: ToolDelete, method: http.MethodDelete, description: deleteDescription},
}

// RegisterAPITools registers the generic Jira API tools with the MCP server.
// In read-only mode only jira_get is registered.
func RegisterAPITools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	for _, spec := range toolSpecs {
		if sc.ReadOnly() && IsWriteMethod(spec.method) {
			continue
		}
		s.AddTool(newTool(spec), tools.WrapWithInstrumentation(spec.name, methodHandler(spec), sc))
	}
	return nil
}

func newTool(spec toolSpec) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(spec.description),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description(`The Jira API endpoint path (without base URL). Must start with "/". Examples: "/rest/api/3/project", "/rest/api/3/search/jql", "/rest/api/3/issue/{issueIdOrKey}"`),
		),
		mcp.WithObject("queryParams",
			mcp.Description(`Optional query parameters as key-value pairs. Examples: {"maxResults": "50", "startAt": "0", "jql": "project=PROJ", "fields": "summary,status"}`),
		),
	}
	if spec.withBody {
		opts = append(opts, mcp.WithObject("body",
			mcp.Required(),
			mcp.Description(`Request body as a JSON object. Structure depends on the endpoint. Example for issue: {"fields": {"project": {"key": "PROJ"}, "summary": "Issue title", "issuetype": {"name": "Task"}}}`),
		))
	}
	opts = append(opts, tools.OutputParams()...)
	return mcp.NewTool(spec.name, opts...)
}

func methodHandler(spec toolSpec) tools.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
		return handleRequest(ctx, request, sc, spec.method, spec.withBody)
	}
}
