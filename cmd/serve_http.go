package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/server/middleware"
)

// HTTP server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// runStreamableHTTPServer runs the server with Streamable HTTP transport
func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, config ServeConfig, sc *server.ServerContext) error {
	mux := http.NewServeMux()

	mcpHandler := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithEndpointPath(config.HTTPEndpoint),
	)
	mux.Handle(config.HTTPEndpoint, mcpHandler)

	sc.Logger().Info("streamable HTTP server starting",
		slog.String("addr", config.HTTPAddr),
		slog.String("endpoint", config.HTTPEndpoint))

	return serveHTTP(ctx, mux, config, sc)
}

// serveHTTP adds the health endpoints and middleware to mux and serves it on
// config.HTTPAddr, next to the metrics server when enabled. It returns when
// ctx is done or a listener fails, after shutting both servers down.
func serveHTTP(ctx context.Context, mux *http.ServeMux, config ServeConfig, sc *server.ServerContext) error {
	logger := sc.Logger()

	healthChecker := server.NewHealthChecker(sc)
	healthChecker.RegisterHealthEndpoints(mux)

	handler, err := buildHTTPHandler(mux, config, sc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              config.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		// Streams end with the server context so that Shutdown does not wait
		// for long-lived SSE connections.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	if config.Metrics.Enabled {
		metricsServer, err := newMetricsServer(config.Metrics, sc)
		if err != nil {
			return err
		}
		if metricsServer != nil {
			runUntilDone(gctx, g, logger, "metrics", metricsServer.Start, metricsServer.Shutdown)
		}
	}

	runUntilDone(gctx, g, logger, "http", httpServer.ListenAndServe, func(shutdownCtx context.Context) error {
		healthChecker.SetReady(false)
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("HTTP server stopped with error: %w", err)
	}
	logger.Info("HTTP server gracefully stopped")
	return nil
}

// buildHTTPHandler wraps h with logging, metrics, security headers and, when
// origins are configured, CORS.
func buildHTTPHandler(h http.Handler, config ServeConfig, sc *server.ServerContext) (http.Handler, error) {
	origins, err := middleware.ValidateAllowedOrigins(config.AllowedOrigins)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed origins: %w", err)
	}
	if len(origins) > 0 {
		h = middleware.CORS(origins)(h)
	}
	h = middleware.SecurityHeaders(middleware.SecurityHeadersConfig{EnableHSTS: config.EnableHSTS})(h)
	h = middleware.HTTPMetrics(sc.InstrumentationProvider())(h)
	h = middleware.RequestLogger(sc.Logger())(h)
	return h, nil
}

// newMetricsServer creates the dedicated metrics server. It returns nil when
// instrumentation is disabled.
func newMetricsServer(config MetricsServeConfig, sc *server.ServerContext) (*server.MetricsServer, error) {
	provider := sc.InstrumentationProvider()
	if !provider.Enabled() {
		sc.Logger().Warn("metrics server requested but instrumentation is disabled (set INSTRUMENTATION_ENABLED=true)")
		return nil, nil
	}
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    config.Addr,
		Enabled:                 config.Enabled,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}
	sc.Logger().Info("metrics server starting", slog.String("addr", config.Addr), slog.String("endpoint", "/metrics"))
	return metricsServer, nil
}

// runUntilDone runs start in g and calls shutdown once ctx is done.
// http.ErrServerClosed is not an error.
func runUntilDone(ctx context.Context, g *errgroup.Group, logger *slog.Logger, name string, start func() error, shutdown func(context.Context) error) {
	g.Go(func() error {
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("stopping server", slog.String("server", name))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down %s server: %w", name, err)
		}
		return nil
	})
}
