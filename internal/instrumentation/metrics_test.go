package instrumentation

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns Metrics backed by a manual reader.
func newTestMetrics(t *testing.T, detailedLabels bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	metrics, err := NewMetrics(provider.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("expected no error creating metrics, got %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumPoints(t *testing.T, m metricdata.Metrics) []metricdata.DataPoint[int64] {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s: expected Sum[int64], got %T", m.Name, m.Data)
	}
	return sum.DataPoints
}

func TestNewMetrics(t *testing.T) {
	metrics, _ := newTestMetrics(t, false)

	if metrics.httpRequestsTotal == nil || metrics.httpRequestDuration == nil {
		t.Error("expected HTTP metrics to be initialized")
	}
	if metrics.jiraRequestsTotal == nil || metrics.jiraRequestDuration == nil {
		t.Error("expected Jira metrics to be initialized")
	}
	if metrics.toolInvocationsTotal == nil || metrics.toolInvocationDuration == nil {
		t.Error("expected tool metrics to be initialized")
	}
	if metrics.renderTotal == nil || metrics.renderOutcomeTotal == nil || metrics.renderOutputChars == nil {
		t.Error("expected render metrics to be initialized")
	}
	if metrics.detailedLabels {
		t.Error("expected detailedLabels to be false")
	}
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	metrics, reader := newTestMetrics(t, false)

	metrics.RecordHTTPRequest(context.Background(), "POST", "/mcp", 200, 150*time.Millisecond)

	got := collect(t, reader)
	points := sumPoints(t, got["http_requests_total"])
	if len(points) != 1 || points[0].Value != 1 {
		t.Fatalf("unexpected points: %+v", points)
	}
	if v, _ := points[0].Attributes.Value(attribute.Key(attrStatus)); v.AsString() != "200" {
		t.Errorf("status = %q, want 200", v.AsString())
	}
	if _, ok := got["http_request_duration_seconds"]; !ok {
		t.Error("expected duration histogram")
	}
}

func TestMetrics_RecordJiraRequest(t *testing.T) {
	tests := []struct {
		name          string
		detailed      bool
		statusCode    int
		wantStatus    string
		wantClass     string
		wantPathLabel bool
	}{
		{name: "success", statusCode: 200, wantStatus: StatusSuccess, wantClass: "2xx"},
		{name: "client error", statusCode: 404, wantStatus: StatusError, wantClass: "4xx"},
		{name: "transport failure", statusCode: 0, wantStatus: StatusError, wantClass: "none"},
		{name: "detailed labels", detailed: true, statusCode: 201, wantStatus: StatusSuccess, wantClass: "2xx", wantPathLabel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics, reader := newTestMetrics(t, tt.detailed)

			metrics.RecordJiraRequest(context.Background(), "GET", "/rest/api/3/issue/PROJ-1", tt.statusCode, time.Second)

			points := sumPoints(t, collect(t, reader)["jira_api_requests_total"])
			if len(points) != 1 {
				t.Fatalf("expected 1 point, got %d", len(points))
			}
			attrs := points[0].Attributes
			if v, _ := attrs.Value(attribute.Key(attrStatus)); v.AsString() != tt.wantStatus {
				t.Errorf("status = %q, want %q", v.AsString(), tt.wantStatus)
			}
			if v, _ := attrs.Value(attribute.Key(attrStatusCode)); v.AsString() != tt.wantClass {
				t.Errorf("status_code = %q, want %q", v.AsString(), tt.wantClass)
			}
			v, ok := attrs.Value(attribute.Key(attrPath))
			if ok != tt.wantPathLabel {
				t.Fatalf("path label present = %v, want %v", ok, tt.wantPathLabel)
			}
			if ok && v.AsString() != "/rest/api/3/issue/{key}" {
				t.Errorf("path = %q, want templated path", v.AsString())
			}
		})
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	metrics, reader := newTestMetrics(t, false)

	metrics.RecordToolInvocation(context.Background(), "jira_get", StatusSuccess, time.Millisecond)
	metrics.RecordToolInvocation(context.Background(), "jira_get", StatusSuccess, time.Millisecond)

	points := sumPoints(t, collect(t, reader)["mcp_tool_invocations_total"])
	if len(points) != 1 || points[0].Value != 2 {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestMetrics_RecordRender(t *testing.T) {
	metrics, reader := newTestMetrics(t, false)
	ctx := context.Background()

	metrics.RecordRender(ctx, RenderStats{Format: "toon", EncodedChars: 120})
	metrics.RecordRender(ctx, RenderStats{Format: "json", FilterError: true, CompactFallback: true, Truncated: true, EncodedChars: 90000})

	got := collect(t, reader)

	if points := sumPoints(t, got["response_render_total"]); len(points) != 2 {
		t.Errorf("expected one series per format, got %d", len(points))
	}

	outcomes := map[string]int64{}
	for _, p := range sumPoints(t, got["response_render_outcomes_total"]) {
		v, _ := p.Attributes.Value(attribute.Key(attrOutcome))
		outcomes[v.AsString()] = p.Value
	}
	for _, outcome := range []string{RenderOutcomeFilterError, RenderOutcomeCompactFallback, RenderOutcomeTruncated} {
		if outcomes[outcome] != 1 {
			t.Errorf("outcome %s = %d, want 1", outcome, outcomes[outcome])
		}
	}

	hist, ok := got["response_render_encoded_chars"].Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatalf("expected Histogram[int64], got %T", got["response_render_encoded_chars"].Data)
	}
	var total int64
	for _, dp := range hist.DataPoints {
		total += dp.Sum
	}
	if total != 90120 {
		t.Errorf("encoded chars sum = %d, want 90120", total)
	}
}

func TestMetrics_UninitializedIsNoop(t *testing.T) {
	ctx := context.Background()

	var zero Metrics
	zero.RecordHTTPRequest(ctx, "GET", "/", 200, time.Second)
	zero.RecordJiraRequest(ctx, "GET", "/", 200, time.Second)
	zero.RecordToolInvocation(ctx, "t", StatusSuccess, time.Second)
	zero.RecordRender(ctx, RenderStats{Format: "toon"})

	var nilMetrics *Metrics
	nilMetrics.RecordHTTPRequest(ctx, "GET", "/", 200, time.Second)
	nilMetrics.RecordJiraRequest(ctx, "GET", "/", 200, time.Second)
	nilMetrics.RecordToolInvocation(ctx, "t", StatusSuccess, time.Second)
	nilMetrics.RecordRender(ctx, RenderStats{})
}

func TestMetrics_Concurrent(t *testing.T) {
	metrics, reader := newTestMetrics(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metrics.RecordToolInvocation(ctx, "jira_get", StatusSuccess, time.Millisecond)
		}()
	}
	wg.Wait()

	points := sumPoints(t, collect(t, reader)["mcp_tool_invocations_total"])
	if len(points) != 1 || points[0].Value != 50 {
		t.Fatalf("unexpected points: %+v", points)
	}
}

func TestStatusCodeClass(t *testing.T) {
	tests := map[int]string{0: "none", 99: "none", 200: "2xx", 302: "3xx", 429: "4xx", 503: "5xx", 600: "none"}
	for code, want := range tests {
		if got := statusCodeClass(code); got != want {
			t.Errorf("statusCodeClass(%d) = %q, want %q", code, got, want)
		}
	}
}
