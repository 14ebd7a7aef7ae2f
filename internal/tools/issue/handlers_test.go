package issue

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/server"
)

type jiraStub struct {
	mu     sync.Mutex
	method string
	target *url.URL
}

func (j *jiraStub) request() (string, *url.URL) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.method, j.target
}

func setup(t *testing.T, reply string) (*mcpserver.MCPServer, *jiraStub) {
	t.Helper()
	stub := &jiraStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		stub.mu.Lock()
		stub.method, stub.target = r.Method, r.URL
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	client, err := jira.NewClient(jira.Credentials{BaseURL: srv.URL, UserEmail: "dev@acme.com", APIToken: "secret"})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(),
		server.WithJiraClient(client),
		server.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterIssueTools(s, sc))
	return s, stub
}

func call(t *testing.T, s *mcpserver.MCPServer, name string, args map[string]any) (bool, string) {
	t.Helper()
	tool, ok := s.ListTools()[name]
	require.True(t, ok, "tool %s is not registered", name)

	request := mcp.CallToolRequest{}
	request.Params.Name = name
	request.Params.Arguments = args
	result, err := tool.Handler(context.Background(), request)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result.IsError, text.Text
}

func TestRegisterIssueTools(t *testing.T) {
	s, _ := setup(t, `{}`)
	assert.Contains(t, s.ListTools(), ToolList)
	assert.Contains(t, s.ListTools(), ToolGet)
}

func TestListIssues(t *testing.T) {
	s, stub := setup(t, `{"issues":[{"id":"10001","key":"TEAM-1","fields":{"summary":"Flaky build"}}],"isLast":true}`)

	isErr, text := call(t, s, ToolList, map[string]any{
		"jql": "project = TEAM",
		"jq":  "issues[*].key",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "TEAM-1")
	assert.NotContains(t, text, "Flaky build")

	method, target := stub.request()
	require.NotNil(t, target)
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, searchPath, target.Path)
	assert.Equal(t, url.Values{
		"jql":        {"project = TEAM ORDER BY updated DESC"},
		"fields":     {DefaultListFields},
		"maxResults": {"25"},
		"startAt":    {"0"},
	}, target.Query())
}

func TestListIssues_Paging(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want url.Values
	}{
		{
			name: "offset cursor",
			args: map[string]any{"limit": 50.0, "cursor": "50", "fields": "summary"},
			want: url.Values{
				"jql":        {DefaultOrder},
				"fields":     {"summary"},
				"maxResults": {"50"},
				"startAt":    {"50"},
			},
		},
		{
			name: "token cursor",
			args: map[string]any{"jql": "assignee = currentUser() order by created", "cursor": "CAEaAggD"},
			want: url.Values{
				"jql":           {"assignee = currentUser() order by created"},
				"fields":        {DefaultListFields},
				"maxResults":    {"25"},
				"nextPageToken": {"CAEaAggD"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stub := setup(t, `{"issues":[]}`)
			isErr, text := call(t, s, ToolList, tt.args)
			require.False(t, isErr, text)

			_, target := stub.request()
			require.NotNil(t, target)
			assert.Equal(t, tt.want, target.Query())
		})
	}
}

func TestListIssues_InvalidArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{name: "zero limit", args: map[string]any{"limit": 0.0}, wantErr: "limit must be at least 1"},
		{name: "limit too large", args: map[string]any{"limit": 101.0}, wantErr: "limit must be at most 100"},
		{name: "numeric cursor", args: map[string]any{"cursor": 25.0}, wantErr: "cursor must be a string, got number"},
		{name: "jql not a string", args: map[string]any{"jql": true}, wantErr: "jql must be a string, got boolean"},
		{name: "bad format", args: map[string]any{"outputFormat": "yaml"}, wantErr: "yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stub := setup(t, `{}`)
			isErr, text := call(t, s, ToolList, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantErr)
			_, target := stub.request()
			assert.Nil(t, target)
		})
	}
}

func TestGetIssue(t *testing.T) {
	s, stub := setup(t, `{"id":"10001","key":"TEAM-1","fields":{"summary":"Flaky build","status":{"name":"Open"}}}`)

	isErr, text := call(t, s, ToolGet, map[string]any{
		"issueIdOrKey": " TEAM-1 ",
		"fields":       "summary,status",
		"expand":       "changelog",
		"jq":           "fields.status.name",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Open")

	method, target := stub.request()
	require.NotNil(t, target)
	assert.Equal(t, http.MethodGet, method)
	assert.Equal(t, "/rest/api/3/issue/TEAM-1", target.Path)
	assert.Equal(t, url.Values{"fields": {"summary,status"}, "expand": {"changelog"}}, target.Query())
}

func TestGetIssue_MissingKey(t *testing.T) {
	s, stub := setup(t, `{}`)
	isErr, text := call(t, s, ToolGet, map[string]any{"issueIdOrKey": "  "})
	assert.True(t, isErr)
	assert.Contains(t, text, "issueIdOrKey is required")
	_, target := stub.request()
	assert.Nil(t, target)
}

func TestWithDefaultOrder(t *testing.T) {
	tests := []struct {
		jql  string
		want string
	}{
		{"", DefaultOrder},
		{"   ", DefaultOrder},
		{"project = TEAM", "project = TEAM " + DefaultOrder},
		{"project = TEAM ORDER BY priority", "project = TEAM ORDER BY priority"},
		{"project = TEAM order  by rank", "project = TEAM order  by rank"},
		{"summary ~ 'border by'", "summary ~ 'border by' " + DefaultOrder},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WithDefaultOrder(tt.jql), tt.jql)
	}
}

func TestListRequest(t *testing.T) {
	tests := []struct {
		name    string
		opts    ListOptions
		want    map[string]string
		wantErr string
	}{
		{
			name: "defaults",
			opts: ListOptions{},
			want: map[string]string{"jql": DefaultOrder, "fields": DefaultListFields, "maxResults": "25", "startAt": "0"},
		},
		{
			name: "offset",
			opts: ListOptions{JQL: "status = Done", Fields: "key", Limit: 10, Cursor: "20"},
			want: map[string]string{"jql": "status = Done " + DefaultOrder, "fields": "key", "maxResults": "10", "startAt": "20"},
		},
		{
			name:    "limit out of range",
			opts:    ListOptions{Limit: 500},
			wantErr: "limit must be between 1 and 100",
		},
		{
			name:    "offset overflow",
			opts:    ListOptions{Cursor: "99999999999"},
			wantErr: "cursor must be a non-negative item index",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ListRequest(tt.opts)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, http.MethodGet, req.Method)
			assert.Equal(t, searchPath, req.Path)
			assert.Equal(t, tt.want, req.QueryParams)
		})
	}
}

func TestGetRequest_EscapesKey(t *testing.T) {
	req := GetRequest("TEAM-1/../2", "", "")
	assert.Equal(t, "/rest/api/3/issue/TEAM-1%2F..%2F2", req.Path)
	assert.Empty(t, req.QueryParams)
}
