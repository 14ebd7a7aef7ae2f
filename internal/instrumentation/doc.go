// Package instrumentation provides OpenTelemetry instrumentation for the
// mcp-jira server.
//
// # Metrics
//
// Server/HTTP Metrics:
//   - http_requests_total: Counter of HTTP requests by method, path, and status
//   - http_request_duration_seconds: Histogram of HTTP request durations
//
// Jira API Metrics:
//   - jira_api_requests_total: Counter of REST calls by method, status and status class
//   - jira_api_request_duration_seconds: Histogram of REST call durations
//
// Tool Metrics:
//   - mcp_tool_invocations_total: Counter of tool calls by tool and status
//   - mcp_tool_invocation_duration_seconds: Histogram of tool call durations
//
// Response Shaping Metrics:
//   - response_render_total: Counter of rendered responses by output format
//   - response_render_outcomes_total: Filter errors, compact fallbacks and truncations
//   - response_render_encoded_chars: Histogram of encoded sizes before truncation
//
// # Cardinality Considerations
//
// Jira paths carry issue keys and numeric IDs. Path labels are only recorded
// in templated form (see TemplatePath) and only when detailed labels are on.
// Account emails never appear in metrics; spans carry the email domain and
// audit logs a hash.
//
// # Tracing
//
// Spans are created for MCP tool invocations, Jira REST calls and the
// filter/encode/truncate pipeline.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_EXPORTER_OTLP_INSECURE: use plain HTTP for OTLP
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: mcp-jira)
//
// stdout exporters write to stderr so they never interleave with the stdio
// transport.
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordJiraRequest(ctx, "GET", "/rest/api/3/myself", 200, time.Since(start))
package instrumentation
