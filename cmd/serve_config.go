package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/server/middleware"
)

// Transport type constants for the MCP server.
const (
	transportStdio          = "stdio"
	transportSSE            = "sse"
	transportStreamableHTTP = "streamable-http"
)

// envValueTrue is the string value used to enable boolean environment variables.
const envValueTrue = "true"

// Environment variables read by the serve command when the matching flag is
// not set.
const (
	envTransport           = "MCP_TRANSPORT"
	envHTTPAddr            = "MCP_HTTP_ADDR"
	envAllowedOrigins      = "ALLOWED_ORIGINS"
	envEnableHSTS          = "ENABLE_HSTS"
	envMetricsAddr         = "METRICS_ADDR"
	envEnableMetricsServer = "ENABLE_METRICS_SERVER"
)

// ServeConfig holds all configuration for the serve command.
type ServeConfig struct {
	// Transport settings
	Transport string
	HTTPAddr  string

	// Endpoint paths
	SSEEndpoint     string
	MessageEndpoint string
	HTTPEndpoint    string

	// Behaviour
	DebugMode        bool
	ReadOnly         bool
	MaxResponseChars int

	// HTTP hardening
	AllowedOrigins string
	EnableHSTS     bool

	Metrics MetricsServeConfig
}

// MetricsServeConfig configures the dedicated metrics listener.
type MetricsServeConfig struct {
	Enabled bool
	Addr    string
}

// lookupEnvFunc matches os.LookupEnv.
type lookupEnvFunc func(string) (string, bool)

// loadServeEnvVars fills settings from the environment. Environment
// variables only apply when the corresponding flag was not explicitly set.
func loadServeEnvVars(cmd *cobra.Command, config *ServeConfig, lookup lookupEnvFunc) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	str := func(flag, key string, target *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	boolean := func(flag, key string, target *bool) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v, ok := lookup(key); ok {
			*target = strings.EqualFold(strings.TrimSpace(v), envValueTrue)
		}
	}

	str("transport", envTransport, &config.Transport)
	str("http-addr", envHTTPAddr, &config.HTTPAddr)
	str("allowed-origins", envAllowedOrigins, &config.AllowedOrigins)
	boolean("enable-hsts", envEnableHSTS, &config.EnableHSTS)
	str("metrics-addr", envMetricsAddr, &config.Metrics.Addr)
	boolean("enable-metrics-server", envEnableMetricsServer, &config.Metrics.Enabled)
}

// validateServeConfig rejects unusable transport settings before anything
// is started.
func validateServeConfig(config ServeConfig) error {
	switch config.Transport {
	case transportStdio:
	case transportSSE:
		if err := validateEndpoint("sse-endpoint", config.SSEEndpoint); err != nil {
			return err
		}
		if err := validateEndpoint("message-endpoint", config.MessageEndpoint); err != nil {
			return err
		}
		if config.SSEEndpoint == config.MessageEndpoint {
			return fmt.Errorf("--sse-endpoint and --message-endpoint must differ (both are %q)", config.SSEEndpoint)
		}
	case transportStreamableHTTP:
		if err := validateEndpoint("http-endpoint", config.HTTPEndpoint); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, sse, streamable-http)", config.Transport)
	}

	if config.Transport != transportStdio && config.HTTPAddr == "" {
		return fmt.Errorf("--http-addr is required for the %s transport", config.Transport)
	}
	if config.MaxResponseChars < 0 {
		return fmt.Errorf("--max-response-chars must not be negative, got %d", config.MaxResponseChars)
	}
	if config.Metrics.Enabled && config.Metrics.Addr == "" {
		return fmt.Errorf("--metrics-addr is required when the metrics server is enabled")
	}
	if config.Metrics.Enabled && config.Transport != transportStdio && config.Metrics.Addr == config.HTTPAddr {
		return fmt.Errorf("--metrics-addr must differ from --http-addr (both are %q)", config.HTTPAddr)
	}
	if config.AllowedOrigins != "" {
		if _, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins); err != nil {
			return fmt.Errorf("invalid allowed origins: %w", err)
		}
	}
	return nil
}

func validateEndpoint(flag, path string) error {
	switch {
	case path == "":
		return fmt.Errorf("--%s must not be empty", flag)
	case !strings.HasPrefix(path, "/"):
		return fmt.Errorf("--%s must start with \"/\", got %q", flag, path)
	case server.IsReservedPath(path):
		return fmt.Errorf("--%s %q collides with a built-in endpoint", flag, path)
	}
	return nil
}
