package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
)

const (
	// DefaultMetricsAddr is where the metrics server listens when no address is given.
	DefaultMetricsAddr = ":9090"

	// DefaultShutdownTimeout bounds graceful shutdown of HTTP servers.
	DefaultShutdownTimeout = 30 * time.Second

	metricsReadHeaderTimeout = 10 * time.Second
)

// MetricsServerConfig configures the dedicated metrics listener.
type MetricsServerConfig struct {
	// Addr is the listen address, e.g. ":9090".
	Addr string

	// Enabled is informational for callers; NewMetricsServer does not read it.
	Enabled bool

	// InstrumentationProvider supplies the Prometheus registry.
	InstrumentationProvider *instrumentation.Provider
}

// MetricsServer serves /metrics on its own port so that scrapes never share
// a listener with MCP traffic.
type MetricsServer struct {
	addr   string
	server *http.Server
}

// NewMetricsServer creates a metrics server. It does not start listening.
func NewMetricsServer(config MetricsServerConfig) (*MetricsServer, error) {
	if config.InstrumentationProvider == nil {
		return nil, errors.New("instrumentation provider is required")
	}

	addr := config.Addr
	if addr == "" {
		addr = DefaultMetricsAddr
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", config.InstrumentationProvider.PrometheusHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		addr: addr,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: metricsReadHeaderTimeout,
		},
	}, nil
}

// Addr returns the listen address.
func (m *MetricsServer) Addr() string {
	return m.addr
}

// Start listens and serves until Shutdown is called. It returns
// http.ErrServerClosed after a graceful shutdown.
func (m *MetricsServer) Start() error {
	return m.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
