package instrumentation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.Enabled() {
		t.Error("provider should be disabled")
	}
	if provider.Metrics() == nil {
		t.Fatal("Metrics should never be nil")
	}
	provider.Metrics().RecordToolInvocation(context.Background(), "jira_get", StatusSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	provider.PrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when disabled", rec.Code)
	}

	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	tests := []Config{
		{Enabled: true, MetricsExporter: "statsd", TracingExporter: ExporterNone},
		{Enabled: true, MetricsExporter: ExporterPrometheus, TracingExporter: "zipkin"},
	}

	for _, config := range tests {
		_, err := NewProvider(context.Background(), config)
		if !errors.Is(err, ErrUnknownExporter) {
			t.Errorf("config %+v: err = %v, want ErrUnknownExporter", config, err)
		}
	}
}

func TestNilProvider(t *testing.T) {
	var provider *Provider

	if provider.Enabled() {
		t.Error("nil provider should not be enabled")
	}
	if provider.Metrics() != nil {
		t.Error("nil provider should have nil metrics")
	}
	if provider.AuditLogger() != nil {
		t.Error("nil provider should have nil audit logger")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

// TestAllMetricsExposedViaPrometheus verifies that every metric defined in
// metrics.go reaches the /metrics endpoint once recorded.
func TestAllMetricsExposedViaPrometheus(t *testing.T) {
	config := Config{
		ServiceName:     "test-metrics-integration",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	}

	ctx := context.Background()
	provider, err := NewProvider(ctx, config)
	if err != nil {
		t.Fatalf("Failed to create instrumentation provider: %v", err)
	}
	defer func() { _ = provider.Shutdown(ctx) }()

	metrics := provider.Metrics()
	metrics.RecordHTTPRequest(ctx, "POST", "/mcp", 200, 10*time.Millisecond)
	metrics.RecordJiraRequest(ctx, "GET", "/rest/api/3/myself", 200, 50*time.Millisecond)
	metrics.RecordToolInvocation(ctx, "jira_get", StatusSuccess, 60*time.Millisecond)
	metrics.RecordRender(ctx, RenderStats{Format: "toon", FilterError: true, CompactFallback: true, Truncated: true, EncodedChars: 50000})

	server := httptest.NewServer(provider.PrometheusHandler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("Failed to scrape metrics: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read metrics body: %v", err)
	}
	output := string(body)

	expected := []string{
		"http_requests_total",
		"http_request_duration_seconds",
		"jira_api_requests_total",
		"jira_api_request_duration_seconds",
		"mcp_tool_invocations_total",
		"mcp_tool_invocation_duration_seconds",
		"response_render_total",
		"response_render_outcomes_total",
		"response_render_encoded_chars",
		"go_goroutines",
	}
	for _, name := range expected {
		if !strings.Contains(output, name) {
			t.Errorf("metric %q not exposed", name)
		}
	}
}

func TestNewProvider_StdoutExporters(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{
		Enabled:           true,
		MetricsExporter:   ExporterStdout,
		TracingExporter:   ExporterStdout,
		TraceSamplingRate: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := StartToolSpan(context.Background(), "jira_get")
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}
