// End-to-end tests that drive the MCP server through a real MCP client over
// the streamable HTTP transport, against a stub Jira site.
//
// Run with: go test -v ./cmd/... -tags=integration
//
//go:build integration

package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/server"
)

func startIntegrationServer(t *testing.T, jiraHandler http.Handler, readOnly bool) string {
	t.Helper()

	site := httptest.NewServer(jiraHandler)
	t.Cleanup(site.Close)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	jc, err := jira.NewClient(jira.Credentials{
		BaseURL:   site.URL,
		UserEmail: "bot@example.com",
		APIToken:  "secret",
	}, jira.WithLogger(logger))
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(),
		server.WithJiraClient(jc),
		server.WithLogger(logger),
		server.WithReadOnly(readOnly),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	mcpSrv, err := newMCPServer(sc)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv, mcpserver.WithEndpointPath("/mcp")))
	server.NewHealthChecker(sc).RegisterHealthEndpoints(mux)

	handler, err := buildHTTPHandler(mux, ServeConfig{}, sc)
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts.URL
}

func connect(ctx context.Context, t *testing.T, baseURL string) *client.Client {
	t.Helper()

	mcpClient, err := client.NewStreamableHttpClient(baseURL + "/mcp")
	require.NoError(t, err)
	require.NoError(t, mcpClient.Start(ctx))
	t.Cleanup(func() { _ = mcpClient.Close() })

	_, err = mcpClient.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    "integration-test",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return mcpClient
}

func callText(ctx context.Context, t *testing.T, c *client.Client, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()

	result, err := c.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result, text.Text
}

func TestStreamableHTTP_EndToEnd(t *testing.T) {
	site := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/rest/api/3/issue/PROJ-1":
			_, _ = w.Write([]byte(`{"key":"PROJ-1","fields":{"summary":"Fix login"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errorMessages":["Issue does not exist"]}`))
		}
	})
	baseURL := startIntegrationServer(t, site, false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := connect(ctx, t, baseURL)

	toolsResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	names := make([]string, 0, len(toolsResp.Tools))
	for _, tool := range toolsResp.Tools {
		names = append(names, tool.Name)
	}
	assert.Contains(t, names, "jira_get")
	assert.Contains(t, names, "jira_post")
	assert.Contains(t, names, "jira_ls_worklogs")
	assert.Contains(t, names, "jira_ls_issues")
	assert.Contains(t, names, "jira_get_project")

	result, text := callText(ctx, t, c, "jira_get", map[string]any{
		"path": "/rest/api/3/issue/PROJ-1",
		"jq":   "{key: key, summary: fields.summary}",
	})
	assert.False(t, result.IsError)
	assert.Contains(t, text, "key: PROJ-1")
	assert.Contains(t, text, "summary: Fix login")

	result, text = callText(ctx, t, c, "jira_get", map[string]any{
		"path": "/rest/api/3/issue/NOPE-1",
	})
	assert.True(t, result.IsError)
	assert.Contains(t, text, "404")

	resp, err := http.Get(baseURL + server.PathLiveness)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStreamableHTTP_ReadOnly(t *testing.T) {
	site := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	})
	baseURL := startIntegrationServer(t, site, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c := connect(ctx, t, baseURL)

	toolsResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	for _, tool := range toolsResp.Tools {
		assert.NotContains(t, []string{"jira_post", "jira_put", "jira_patch", "jira_delete", "jira_add_worklog"}, tool.Name)
	}
}

func TestStreamableHTTP_CallerTimeout(t *testing.T) {
	release := make(chan struct{})
	site := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	baseURL := startIntegrationServer(t, site, false)
	t.Cleanup(func() { close(release) })

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer initCancel()
	c := connect(initCtx, t, baseURL)

	callCtx, callCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer callCancel()

	_, err := c.CallTool(callCtx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      "jira_get",
			Arguments: map[string]any{"path": "/rest/api/3/myself"},
		},
	})
	require.Error(t, err)
}
