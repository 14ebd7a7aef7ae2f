package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrMethod     = "method"
	attrPath       = "path"
	attrStatus     = "status"
	attrStatusCode = "status_code"
	attrTool       = "tool"
	attrFormat     = "format"
	attrOutcome    = "outcome"
)

var durationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0}

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Jira API metrics
	jiraRequestsTotal   metric.Int64Counter
	jiraRequestDuration metric.Float64Histogram

	// Tool metrics
	toolInvocationsTotal   metric.Int64Counter
	toolInvocationDuration metric.Float64Histogram

	// Response shaping metrics
	renderTotal        metric.Int64Counter
	renderOutcomeTotal metric.Int64Counter
	renderOutputChars  metric.Int64Histogram

	// detailedLabels adds the templated API path to Jira request metrics.
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether path labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Jira API Metrics
	m.jiraRequestsTotal, err = meter.Int64Counter(
		"jira_api_requests_total",
		metric.WithDescription("Total number of Jira REST API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira_api_requests_total counter: %w", err)
	}

	m.jiraRequestDuration, err = meter.Float64Histogram(
		"jira_api_request_duration_seconds",
		metric.WithDescription("Jira REST API request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira_api_request_duration_seconds histogram: %w", err)
	}

	// Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolInvocationDuration, err = meter.Float64Histogram(
		"mcp_tool_invocation_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocation_duration_seconds histogram: %w", err)
	}

	// Render Metrics
	m.renderTotal, err = meter.Int64Counter(
		"response_render_total",
		metric.WithDescription("Total number of rendered responses by output format"),
		metric.WithUnit("{response}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response_render_total counter: %w", err)
	}

	m.renderOutcomeTotal, err = meter.Int64Counter(
		"response_render_outcomes_total",
		metric.WithDescription("Filter errors, compact encoder fallbacks and truncations"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response_render_outcomes_total counter: %w", err)
	}

	m.renderOutputChars, err = meter.Int64Histogram(
		"response_render_encoded_chars",
		metric.WithDescription("Size of encoded responses before truncation"),
		metric.WithUnit("{char}"),
		metric.WithExplicitBucketBoundaries(1000, 5000, 10000, 40000, 100000, 500000, 2000000),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response_render_encoded_chars histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordJiraRequest records a call to the Jira REST API. A zero statusCode
// means the request never got a response.
//
// CARDINALITY NOTE: the path label is only recorded when detailedLabels is
// set, and then only in templated form (see TemplatePath).
func (m *Metrics) RecordJiraRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.jiraRequestsTotal == nil || m.jiraRequestDuration == nil {
		return // Instrumentation not initialized
	}

	status := StatusSuccess
	if statusCode == 0 || statusCode >= 400 {
		status = StatusError
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrStatus, status),
		attribute.String(attrStatusCode, statusCodeClass(statusCode)),
	}
	if m.detailedLabels {
		attrs = append(attrs, attribute.String(attrPath, TemplatePath(path)))
	}

	m.jiraRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.jiraRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool call.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolInvocationDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, tool),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolInvocationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RenderStats summarises one pass through the response pipeline.
type RenderStats struct {
	Format          string
	FilterError     bool
	CompactFallback bool
	Truncated       bool
	EncodedChars    int
}

// RecordRender records the outcome of shaping one response.
func (m *Metrics) RecordRender(ctx context.Context, stats RenderStats) {
	if m == nil || m.renderTotal == nil || m.renderOutcomeTotal == nil || m.renderOutputChars == nil {
		return // Instrumentation not initialized
	}

	format := attribute.String(attrFormat, stats.Format)
	m.renderTotal.Add(ctx, 1, metric.WithAttributes(format))
	m.renderOutputChars.Record(ctx, int64(stats.EncodedChars), metric.WithAttributes(format))

	if stats.FilterError {
		m.renderOutcomeTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, RenderOutcomeFilterError)))
	}
	if stats.CompactFallback {
		m.renderOutcomeTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, RenderOutcomeCompactFallback)))
	}
	if stats.Truncated {
		m.renderOutcomeTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, RenderOutcomeTruncated)))
	}
}

// statusCodeClass maps a status code to "2xx", "4xx" and so on.
func statusCodeClass(code int) string {
	if code < 100 || code > 599 {
		return "none"
	}
	return strconv.Itoa(code/100) + "xx"
}
