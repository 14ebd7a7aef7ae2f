package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// JiraClient is the subset of *jira.Client the server depends on.
type JiraClient interface {
	Do(ctx context.Context, req jira.Request) (*jira.Response, error)
	BaseURL() string
}

// ServerContext encapsulates all dependencies needed by the MCP server
// and provides a clean abstraction for dependency injection and lifecycle management.
type ServerContext struct {
	// Core dependencies
	jiraClient JiraClient
	processor  *output.Processor
	logger     *slog.Logger
	config     *Config

	instrumentationProvider *instrumentation.Provider

	// Context management
	ctx    context.Context
	cancel context.CancelFunc

	// Lifecycle management
	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext creates a new ServerContext with default values.
// Use the provided functional options to customize the context.
func NewServerContext(ctx context.Context, opts ...Option) (*ServerContext, error) {
	serverCtx, cancel := context.WithCancel(ctx)

	sc := &ServerContext{
		ctx:    serverCtx,
		cancel: cancel,
		config: NewDefaultConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(sc); err != nil {
			cancel()
			return nil, err
		}
	}

	if sc.processor == nil {
		sc.processor = output.NewProcessor(nil, output.WithLogger(sc.logger))
	}

	if err := sc.validate(); err != nil {
		cancel()
		return nil, err
	}

	return sc, nil
}

// Context returns the server context for cancellation and deadlines.
func (sc *ServerContext) Context() context.Context {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ctx
}

// JiraClient returns the Jira API client.
func (sc *ServerContext) JiraClient() JiraClient {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.jiraClient
}

// Processor returns the response pipeline shared by every tool.
func (sc *ServerContext) Processor() *output.Processor {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.processor
}

// Logger returns the logger.
func (sc *ServerContext) Logger() *slog.Logger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.logger
}

// Config returns the server configuration.
func (sc *ServerContext) Config() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config
}

// ReadOnly reports whether write methods are refused.
func (sc *ServerContext) ReadOnly() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.ReadOnly
}

// InstrumentationProvider returns the OpenTelemetry provider, or nil.
func (sc *ServerContext) InstrumentationProvider() *instrumentation.Provider {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.instrumentationProvider
}

// Metrics returns the metrics recorder, or nil when instrumentation is not
// configured.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.InstrumentationProvider().Metrics()
}

// Shutdown gracefully shuts down the server context.
// This cancels the context and releases any resources.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.logger.Info("shutting down server context")

	if sc.cancel != nil {
		sc.cancel()
	}
	sc.shutdown = true

	sc.logger.Info("server context shutdown complete")
	return nil
}

// IsShutdown returns true if the server context has been shutdown.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// validate ensures all required dependencies are set.
func (sc *ServerContext) validate() error {
	if sc.jiraClient == nil {
		return ErrMissingJiraClient
	}
	if sc.logger == nil {
		return ErrMissingLogger
	}
	if sc.config == nil {
		return ErrMissingConfig
	}
	return nil
}

// Config holds the server configuration.
type Config struct {
	// Server settings
	ServerName string `json:"serverName"`
	Version    string `json:"version"`

	// ReadOnly refuses POST, PUT, PATCH and DELETE.
	ReadOnly bool `json:"readOnly"`

	// UserEmail is the account calls run as. Only its hash or domain is
	// ever logged.
	UserEmail string `json:"-"`

	// AuthMode is "basic" or "oauth".
	AuthMode string `json:"authMode"`
}

// NewDefaultConfig creates a configuration with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		ServerName: "mcp-jira",
		Version:    "dev",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}
