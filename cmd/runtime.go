package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/giantswarm/mcp-jira/internal/config"
	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/logging"
	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// runtimeOptions selects how the shared dependencies are built.
type runtimeOptions struct {
	// LogOutput receives log records. stdout is never used because it carries
	// the stdio transport and CLI results.
	LogOutput io.Writer

	// Debug forces debug logging regardless of the DEBUG setting.
	Debug bool

	// ReadOnly forces read-only mode regardless of the MCP_READ_ONLY setting.
	ReadOnly bool

	// MaxResponseChars overrides the configured budget when positive.
	MaxResponseChars int

	// AllowMissingCredentials starts without a working Jira client. Calls
	// fail with jira.ErrCredentialsMissing instead.
	AllowMissingCredentials bool

	// ConfigOptions are passed to config.Load.
	ConfigOptions []config.Option
}

// runtime holds the dependencies shared by the serve and API commands.
type runtime struct {
	Settings  config.Settings
	Logger    *slog.Logger
	Provider  *instrumentation.Provider
	Client    server.JiraClient
	Processor *output.Processor
}

// newRuntime loads configuration and builds the logger, instrumentation
// provider, Jira client and response pipeline.
func newRuntime(ctx context.Context, opts runtimeOptions) (*runtime, error) {
	bootstrap := logging.New(opts.LogOutput, opts.Debug)

	store, err := config.Load(append([]config.Option{config.WithLogger(bootstrap)}, opts.ConfigOptions...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	settings := store.Settings()
	settings.Debug = settings.Debug || opts.Debug
	settings.ReadOnly = settings.ReadOnly || opts.ReadOnly
	if opts.MaxResponseChars > 0 {
		settings.MaxResponseChars = opts.MaxResponseChars
	}

	logger := logging.New(opts.LogOutput, settings.Debug)
	logger.Debug("configuration loaded", slog.Any("sources", store.Sources()))

	instrumentationConfig := instrumentation.DefaultConfig()
	instrumentationConfig.ServiceVersion = rootCmd.Version
	provider, err := instrumentation.NewProvider(ctx, instrumentationConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	if provider.Enabled() {
		logger.Info("OpenTelemetry instrumentation enabled",
			slog.String("metrics", instrumentationConfig.MetricsExporter),
			slog.String("tracing", instrumentationConfig.TracingExporter))
	}

	metrics := provider.Metrics()
	client, err := jira.NewClient(settings.Credentials,
		jira.WithLogger(logger),
		jira.WithUserAgent("mcp-jira/"+rootCmd.Version),
		jira.WithRawResponseStore(jira.NewRawResponseStore(settings.RawResponseDir)),
		jira.WithRequestObserver(func(ctx context.Context, method, path string, status int, d time.Duration) {
			metrics.RecordJiraRequest(ctx, method, path, status, d)
		}),
	)
	var jiraClient server.JiraClient = client
	switch {
	case err == nil:
	case errors.Is(err, jira.ErrCredentialsMissing) && opts.AllowMissingCredentials:
		logger.Warn("Jira credentials are incomplete, tool calls will fail until they are configured", logging.Err(err))
		jiraClient = unconfiguredClient{err: err}
	default:
		_ = provider.Shutdown(context.Background())
		return nil, err
	}

	processor := output.NewProcessor(settings.OutputConfig(),
		output.WithLogger(logger),
		output.WithObserver(tools.RenderObserver(metrics)),
	)

	return &runtime{
		Settings:  settings,
		Logger:    logger,
		Provider:  provider,
		Client:    jiraClient,
		Processor: processor,
	}, nil
}

// ServerContext builds the tool server context for rt.
func (rt *runtime) ServerContext(ctx context.Context) (*server.ServerContext, error) {
	return server.NewServerContext(ctx,
		server.WithJiraClient(rt.Client),
		server.WithProcessor(rt.Processor),
		server.WithLogger(rt.Logger),
		server.WithInstrumentationProvider(rt.Provider),
		server.WithConfig(&server.Config{
			ServerName: "mcp-jira",
			Version:    rootCmd.Version,
			ReadOnly:   rt.Settings.ReadOnly,
			UserEmail:  rt.Settings.Credentials.UserEmail,
			AuthMode:   rt.Settings.Credentials.AuthMode(),
		}),
	)
}

// Close flushes instrumentation.
func (rt *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := rt.Provider.Shutdown(ctx); err != nil {
		rt.Logger.Warn("error during instrumentation shutdown", logging.Err(err))
	}
}

// unconfiguredClient stands in for the Jira client when credentials are
// missing, so that the server can start and report the problem per call.
type unconfiguredClient struct {
	err error
}

func (c unconfiguredClient) Do(context.Context, jira.Request) (*jira.Response, error) {
	return nil, c.err
}

func (unconfiguredClient) BaseURL() string { return "" }
