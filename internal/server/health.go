package server

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"

	"github.com/giantswarm/mcp-jira/internal/logging"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// Operational modes reported by the detailed health endpoint.
const (
	ModeReadOnly  = "read-only"
	ModeReadWrite = "read-write"
)

// Health endpoint paths.
const (
	PathLiveness       = "/healthz"
	PathReadiness      = "/readyz"
	PathDetailedHealth = "/healthz/detailed"
)

// IsReservedPath reports whether path is served by the health endpoints and
// so cannot be used as an MCP endpoint.
func IsReservedPath(path string) bool {
	switch path {
	case PathLiveness, PathReadiness, PathDetailedHealth:
		return true
	}
	return false
}

// HealthChecker provides health check endpoints for container probes.
type HealthChecker struct {
	ready         atomic.Bool
	serverContext *ServerContext
	startTime     time.Time
}

// NewHealthChecker creates a new HealthChecker. It starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{
		serverContext: sc,
		startTime:     time.Now(),
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Version string            `json:"version,omitempty"`
}

// DetailedHealthResponse includes the Jira site, encoder and instrumentation state.
type DetailedHealthResponse struct {
	Status          string                      `json:"status"`
	Mode            string                      `json:"mode"`
	Version         string                      `json:"version,omitempty"`
	Uptime          string                      `json:"uptime"`
	Jira            *JiraStatus                 `json:"jira,omitempty"`
	Output          *OutputStatus               `json:"output,omitempty"`
	Instrumentation *InstrumentationHealthCheck `json:"instrumentation,omitempty"`
}

// JiraStatus describes the configured Jira site.
type JiraStatus struct {
	Site     string `json:"site"`
	AuthMode string `json:"auth_mode,omitempty"`
}

// OutputStatus describes the response pipeline.
type OutputStatus struct {
	DefaultFormat    string `json:"default_format"`
	MaxResponseChars int    `json:"max_response_chars"`
	EncoderState     string `json:"encoder_state"`
}

// InstrumentationHealthCheck provides health information about instrumentation.
type InstrumentationHealthCheck struct {
	Enabled         bool   `json:"enabled"`
	MetricsExporter string `json:"metrics_exporter,omitempty"`
	TracingExporter string `json:"tracing_exporter,omitempty"`
}

// LivenessHandler returns an HTTP handler for the /healthz endpoint.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{Status: "ok"}
		if h.serverContext != nil && h.serverContext.Config() != nil {
			response.Version = h.serverContext.Config().Version
		}
		writeJSON(w, http.StatusOK, response)
	})
}

// ReadinessHandler returns an HTTP handler for the /readyz endpoint.
// A failed compact encoder is reported but does not fail readiness since
// responses fall back to JSON.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string)
		allOk := true

		if !h.ready.Load() {
			checks["ready"] = "not ready"
			allOk = false
		} else {
			checks["ready"] = "ok"
		}

		if h.serverContext != nil && h.serverContext.IsShutdown() {
			checks["shutdown"] = "shutting down"
			allOk = false
		} else {
			checks["shutdown"] = "ok"
		}

		if h.serverContext != nil {
			if provider := h.serverContext.InstrumentationProvider(); provider != nil {
				if provider.Enabled() {
					checks["instrumentation"] = "ok"
				} else {
					checks["instrumentation"] = "disabled"
				}
			}
			if p := h.serverContext.Processor(); p != nil {
				checks["encoder"] = p.Encoder().State().String()
			}
		}

		response := HealthResponse{Checks: checks}
		status := http.StatusOK
		if allOk {
			response.Status = "ok"
		} else {
			response.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle(PathLiveness, h.LivenessHandler())
	mux.Handle(PathReadiness, h.ReadinessHandler())
	mux.Handle(PathDetailedHealth, h.DetailedHealthHandler())
}

// DetailedHealthHandler returns an HTTP handler for the /healthz/detailed endpoint.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response := DetailedHealthResponse{
			Status: "ok",
			Mode:   h.determineMode(),
			Uptime: time.Since(h.startTime).Truncate(time.Second).String(),
		}

		if h.serverContext != nil {
			if cfg := h.serverContext.Config(); cfg != nil {
				response.Version = cfg.Version
			}
			response.Jira = h.getJiraStatus()
			response.Output = h.getOutputStatus()
			response.Instrumentation = h.getInstrumentationStatus()
		}

		status := http.StatusOK
		switch {
		case !h.ready.Load():
			response.Status = "not ready"
			status = http.StatusServiceUnavailable
		case h.serverContext != nil && h.serverContext.IsShutdown():
			response.Status = "shutting down"
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, response)
	})
}

func (h *HealthChecker) determineMode() string {
	if h.serverContext == nil {
		return "unknown"
	}
	if h.serverContext.ReadOnly() {
		return ModeReadOnly
	}
	return ModeReadWrite
}

func (h *HealthChecker) getJiraStatus() *JiraStatus {
	client := h.serverContext.JiraClient()
	if client == nil {
		return nil
	}
	status := &JiraStatus{Site: logging.SanitizeHost(client.BaseURL())}
	if cfg := h.serverContext.Config(); cfg != nil {
		status.AuthMode = cfg.AuthMode
	}
	return status
}

func (h *HealthChecker) getOutputStatus() *OutputStatus {
	p := h.serverContext.Processor()
	if p == nil {
		return nil
	}
	cfg := p.Config()
	if cfg == nil {
		cfg = output.DefaultConfig()
	}
	return &OutputStatus{
		DefaultFormat:    cfg.DefaultFormat.String(),
		MaxResponseChars: cfg.MaxResponseChars,
		EncoderState:     p.Encoder().State().String(),
	}
}

func (h *HealthChecker) getInstrumentationStatus() *InstrumentationHealthCheck {
	provider := h.serverContext.InstrumentationProvider()
	if provider == nil {
		return &InstrumentationHealthCheck{Enabled: false}
	}
	status := &InstrumentationHealthCheck{Enabled: provider.Enabled()}
	if status.Enabled {
		cfg := provider.Config()
		status.MetricsExporter = cfg.MetricsExporter
		status.TracingExporter = cfg.TracingExporter
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, v)
}
