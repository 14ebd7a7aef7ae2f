package worklog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/server"
)

type capturedRequest struct {
	method string
	uri    string
	body   []byte
}

type jiraStub struct {
	mu   sync.Mutex
	last *capturedRequest
}

func (j *jiraStub) request() *capturedRequest {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

func setup(t *testing.T, reply string, opts ...server.Option) (*mcpserver.MCPServer, *jiraStub) {
	t.Helper()
	stub := &jiraStub{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		stub.mu.Lock()
		stub.last = &capturedRequest{method: r.Method, uri: r.URL.RequestURI(), body: b}
		stub.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)

	client, err := jira.NewClient(jira.Credentials{BaseURL: srv.URL, UserEmail: "dev@acme.com", APIToken: "secret"})
	require.NoError(t, err)

	opts = append([]server.Option{
		server.WithJiraClient(client),
		server.WithLogger(slog.New(slog.DiscardHandler)),
	}, opts...)
	sc, err := server.NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	s := mcpserver.NewMCPServer("test", "0.0.1", mcpserver.WithToolCapabilities(true))
	require.NoError(t, RegisterWorklogTools(s, sc))
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

func TestRegisterWorklogTools_ReadOnly(t *testing.T) {
	s, _ := setup(t, `{}`)
	assert.Contains(t, s.ListTools(), ToolList)
	assert.Contains(t, s.ListTools(), ToolAdd)

	ro, _ := setup(t, `{}`, server.WithReadOnly(true))
	assert.Contains(t, ro.ListTools(), ToolList)
	assert.NotContains(t, ro.ListTools(), ToolAdd)
}

func TestListWorklogs(t *testing.T) {
	s, stub := setup(t, `{"total":1,"worklogs":[{"id":"100","timeSpent":"1h","timeSpentSeconds":3600}]}`)

	isErr, text := call(t, s, ToolList, map[string]any{
		"issueIdOrKey": "PROJ-7",
		"maxResults":   20.0,
		"startAt":      0.0,
		"jq":           "worklogs[*].id",
	})
	require.False(t, isErr, text)
	assert.Contains(t, text, "100")
	assert.NotContains(t, text, "timeSpent")

	req := stub.request()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/rest/api/3/issue/PROJ-7/worklog?maxResults=20&startAt=0", req.uri)
}

func TestListWorklogs_InvalidArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{name: "missing issue", args: map[string]any{}, wantErr: "issueIdOrKey is required"},
		{name: "negative page size", args: map[string]any{"issueIdOrKey": "P-1", "maxResults": -1.0}, wantErr: "maxResults must be at least 0"},
		{name: "huge offset", args: map[string]any{"issueIdOrKey": "P-1", "startAt": 1e30}, wantErr: "startAt must be at most 2147483647"},
		{name: "string offset", args: map[string]any{"issueIdOrKey": "P-1", "startAt": "10"}, wantErr: "startAt must be a number, got string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stub := setup(t, `{}`)
			isErr, text := call(t, s, ToolList, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantErr)
			assert.Nil(t, stub.request())
		})
	}
}

func TestAddWorklog(t *testing.T) {
	s, stub := setup(t, `{"id":"200","timeSpentSeconds":5400}`)

	isErr, text := call(t, s, ToolAdd, map[string]any{
		"issueIdOrKey":     "PROJ-7",
		"timeSpentSeconds": 5400.0,
		"comment":          "Pairing on the parser",
		"started":          "2026-03-01T09:30:00Z",
		"jq":               "id",
	})
	require.False(t, isErr, text)
	assert.Equal(t, `"200"`, text)

	req := stub.request()
	require.NotNil(t, req)
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/rest/api/3/issue/PROJ-7/worklog", req.uri)

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.body, &body))
	assert.Equal(t, 5400.0, body["timeSpentSeconds"])
	assert.NotContains(t, body, "timeSpent")
	assert.Equal(t, "2026-03-01T09:30:00.000+0000", body["started"])
	assert.Equal(t, "doc", body["comment"].(map[string]any)["type"])
}

func TestAddWorklog_DurationNotation(t *testing.T) {
	s, stub := setup(t, `{"id":"201","timeSpent":"1h 30m"}`)

	isErr, text := call(t, s, ToolAdd, map[string]any{
		"issueIdOrKey": "P-1",
		"timeSpent":    " 1h 30m ",
		"started":      "2026-03-01T09:30:00Z",
	})
	require.False(t, isErr, text)

	req := stub.request()
	require.NotNil(t, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.body, &body))
	assert.Equal(t, "1h 30m", body["timeSpent"])
	assert.NotContains(t, body, "timeSpentSeconds")
	assert.NotContains(t, body, "comment")
}

func TestAddWorklog_InvalidArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{name: "missing time", args: map[string]any{"issueIdOrKey": "P-1"}, wantErr: "timeSpent or timeSpentSeconds is required"},
		{name: "blank duration", args: map[string]any{"issueIdOrKey": "P-1", "timeSpent": "  "}, wantErr: "timeSpent or timeSpentSeconds is required"},
		{name: "both times", args: map[string]any{"issueIdOrKey": "P-1", "timeSpent": "1h", "timeSpentSeconds": 3600.0}, wantErr: "either timeSpent or timeSpentSeconds, not both"},
		{name: "duration not a string", args: map[string]any{"issueIdOrKey": "P-1", "timeSpent": 60.0}, wantErr: "timeSpent must be a string, got number"},
		{name: "huge time", args: map[string]any{"issueIdOrKey": "P-1", "timeSpentSeconds": 1e30}, wantErr: "timeSpentSeconds must be at most 2147483647"},
		{name: "zero time", args: map[string]any{"issueIdOrKey": "P-1", "timeSpentSeconds": 0.0}, wantErr: "at least 1"},
		{name: "fractional time", args: map[string]any{"issueIdOrKey": "P-1", "timeSpentSeconds": 1.5}, wantErr: "whole number"},
		{name: "bad start", args: map[string]any{"issueIdOrKey": "P-1", "timeSpentSeconds": 60.0, "started": "yesterday"}, wantErr: `got "yesterday"`},
		{name: "comment not a string", args: map[string]any{"issueIdOrKey": "P-1", "timeSpentSeconds": 60.0, "comment": true}, wantErr: "comment must be a string, got boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, stub := setup(t, `{}`)
			isErr, text := call(t, s, ToolAdd, tt.args)
			assert.True(t, isErr)
			assert.Contains(t, text, tt.wantErr)
			assert.Nil(t, stub.request())
		})
	}
}

func TestNormalizeStarted(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.FixedZone("CEST", 2*3600)) }
	t.Cleanup(func() { now = orig })

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "", want: "2026-10-19T06:00:00.000+0000"},
		{in: "2026-03-01T09:30:00Z", want: "2026-03-01T09:30:00.000+0000"},
		{in: "2026-03-01T09:30:00.250+02:00", want: "2026-03-01T09:30:00.250+0200"},
		{in: "2026-03-01T09:30:00.000+0100", want: "2026-03-01T09:30:00.000+0100"},
		{in: "2026-03-01T09:30:00", want: "2026-03-01T09:30:00.000+0000"},
		{in: "01/03/2026", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeStarted(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWorklogPath(t *testing.T) {
	assert.Equal(t, "/rest/api/3/issue/PROJ-1/worklog", worklogPath(" PROJ-1 "))
	assert.Equal(t, "/rest/api/3/issue/a%2Fb/worklog", worklogPath("a/b"))
}
