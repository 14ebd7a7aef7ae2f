package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
	"github.com/giantswarm/mcp-jira/internal/tools/issue"
	"github.com/giantswarm/mcp-jira/internal/tools/project"
	"github.com/giantswarm/mcp-jira/internal/tools/worklog"
)

// newServeCmd creates the Cobra command for starting the MCP server.
func newServeCmd() *cobra.Command {
	var config ServeConfig

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP Jira server",
		Long: `Start the MCP Jira server to expose the Jira REST API to clients via
the Model Context Protocol.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - sse: Server-Sent Events over HTTP
  - streamable-http: Streamable HTTP transport

Credentials are read from the environment, a .env file in the working
directory, or ~/.mcp/configs.json:
  ATLASSIAN_SITE_NAME, ATLASSIAN_USER_EMAIL, ATLASSIAN_API_TOKEN
  (or ATLASSIAN_OAUTH_ACCESS_TOKEN for bearer authentication)

Responses are filtered with JMESPath, encoded as TOON or JSON and truncated to
--max-response-chars. The complete response is saved to disk and referenced
whenever output is truncated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loadServeEnvVars(cmd, &config, os.LookupEnv)
			return runServe(cmd.Context(), config)
		},
	}

	cmd.Flags().StringVar(&config.Transport, "transport", transportStdio, "Transport type: stdio, sse, or streamable-http")
	cmd.Flags().StringVar(&config.HTTPAddr, "http-addr", ":8080", "HTTP server address (for sse and streamable-http transports)")
	cmd.Flags().StringVar(&config.SSEEndpoint, "sse-endpoint", "/sse", "SSE endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.MessageEndpoint, "message-endpoint", "/message", "Message endpoint path (for sse transport)")
	cmd.Flags().StringVar(&config.HTTPEndpoint, "http-endpoint", "/mcp", "HTTP endpoint path (for streamable-http transport)")

	cmd.Flags().BoolVar(&config.DebugMode, "debug", false, "Enable debug logging (can also be set via DEBUG=true)")
	cmd.Flags().BoolVar(&config.ReadOnly, "read-only", false, "Refuse POST, PUT, PATCH and DELETE requests (can also be set via MCP_READ_ONLY=true)")
	cmd.Flags().IntVar(&config.MaxResponseChars, "max-response-chars", 0, "Character budget for tool responses (default 40000, can also be set via MCP_MAX_RESPONSE_CHARS)")

	cmd.Flags().StringVar(&config.AllowedOrigins, "allowed-origins", "", "Comma-separated list of origins allowed for CORS (can also be set via ALLOWED_ORIGINS)")
	cmd.Flags().BoolVar(&config.EnableHSTS, "enable-hsts", false, "Send Strict-Transport-Security headers (can also be set via ENABLE_HSTS=true)")

	cmd.Flags().BoolVar(&config.Metrics.Enabled, "enable-metrics-server", false, "Serve Prometheus metrics on a dedicated listener (can also be set via ENABLE_METRICS_SERVER=true)")
	cmd.Flags().StringVar(&config.Metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address (can also be set via METRICS_ADDR)")

	return cmd
}

// runServe contains the main server logic with support for multiple transports
func runServe(ctx context.Context, config ServeConfig) error {
	if err := validateServeConfig(config); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// Setup graceful shutdown - listen for both SIGINT and SIGTERM
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx, runtimeOptions{
		LogOutput:               os.Stderr,
		Debug:                   config.DebugMode,
		ReadOnly:                config.ReadOnly,
		MaxResponseChars:        config.MaxResponseChars,
		AllowMissingCredentials: true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	slog.SetDefault(rt.Logger)

	serverContext, err := rt.ServerContext(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			rt.Logger.Warn("error during server context shutdown", slog.String("error", err.Error()))
		}
	}()

	mcpSrv, err := newMCPServer(serverContext)
	if err != nil {
		return err
	}

	rt.Logger.Info("starting MCP Jira server",
		slog.String("transport", config.Transport),
		slog.String("version", rootCmd.Version),
		slog.Bool("read_only", serverContext.ReadOnly()),
		slog.Int("max_response_chars", rt.Processor.Config().MaxResponseChars))

	switch config.Transport {
	case transportSSE:
		return runSSEServer(shutdownCtx, mcpSrv, config, serverContext)
	case transportStreamableHTTP:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, config, serverContext)
	default:
		return runStdioServer(shutdownCtx, mcpSrv, config, serverContext, os.Stdin, os.Stdout)
	}
}

// newMCPServer creates the MCP server and registers every tool.
func newMCPServer(sc *server.ServerContext) (*mcpserver.MCPServer, error) {
	mcpSrv := mcpserver.NewMCPServer(sc.Config().ServerName, sc.Config().Version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithRecovery(),
	)

	if err := api.RegisterAPITools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register API tools: %w", err)
	}
	if err := issue.RegisterIssueTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register issue tools: %w", err)
	}
	if err := project.RegisterProjectTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register project tools: %w", err)
	}
	if err := worklog.RegisterWorklogTools(mcpSrv, sc); err != nil {
		return nil, fmt.Errorf("failed to register worklog tools: %w", err)
	}
	return mcpSrv, nil
}
