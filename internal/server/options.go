package server

import (
	"errors"
	"log/slog"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// Option is a functional option for configuring ServerContext.
type Option func(*ServerContext) error

// WithJiraClient sets the Jira API client.
func WithJiraClient(client JiraClient) Option {
	return func(sc *ServerContext) error {
		if client == nil {
			return ErrMissingJiraClient
		}
		sc.jiraClient = client
		return nil
	}
}

// WithProcessor sets the response pipeline. When omitted a processor with
// the default budget is created.
func WithProcessor(p *output.Processor) Option {
	return func(sc *ServerContext) error {
		if p == nil {
			return ErrMissingProcessor
		}
		sc.processor = p
		return nil
	}
}

// WithLogger sets the logger for the ServerContext.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *ServerContext) error {
		if logger == nil {
			return ErrMissingLogger
		}
		sc.logger = logger
		return nil
	}
}

// WithConfig sets the configuration for the ServerContext.
func WithConfig(config *Config) Option {
	return func(sc *ServerContext) error {
		if config == nil {
			return ErrMissingConfig
		}
		sc.config = config.Clone()
		return nil
	}
}

// WithServerName sets the server name in the configuration.
func WithServerName(name string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ServerName = name
		return nil
	}
}

// WithVersion sets the reported version.
func WithVersion(version string) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.Version = version
		return nil
	}
}

// WithReadOnly enables or disables read-only mode.
func WithReadOnly(enabled bool) Option {
	return func(sc *ServerContext) error {
		if sc.config == nil {
			sc.config = NewDefaultConfig()
		}
		sc.config.ReadOnly = enabled
		return nil
	}
}

// WithInstrumentationProvider sets the OpenTelemetry instrumentation provider.
func WithInstrumentationProvider(provider *instrumentation.Provider) Option {
	return func(sc *ServerContext) error {
		sc.instrumentationProvider = provider
		return nil
	}
}

// Error definitions for ServerContext validation and operations.
var (
	ErrMissingJiraClient = errors.New("jira client is required")
	ErrMissingProcessor  = errors.New("response processor is required")
	ErrMissingLogger     = errors.New("logger is required")
	ErrMissingConfig     = errors.New("configuration is required")
	ErrServerShutdown    = errors.New("server context has been shutdown")
)
