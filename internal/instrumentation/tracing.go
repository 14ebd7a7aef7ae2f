package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the mcp-jira package.
const TracerName = "github.com/giantswarm/mcp-jira"

// Span attribute keys.
const (
	// SpanAttrTool is the MCP tool name.
	SpanAttrTool = "mcp.tool"

	// SpanAttrMethod is the HTTP method of a Jira API call.
	SpanAttrMethod = "http.request.method"

	// SpanAttrPathTemplate is the templated Jira API path.
	SpanAttrPathTemplate = "jira.path_template"

	// SpanAttrUserDomain is the account's email domain.
	SpanAttrUserDomain = "mcp.user.domain"

	// SpanAttrOutputFormat is the requested output format.
	SpanAttrOutputFormat = "mcp.output_format"

	// SpanAttrFiltered indicates whether a JMESPath filter was supplied.
	SpanAttrFiltered = "mcp.filtered"

	// SpanAttrTruncated indicates whether the response was truncated.
	SpanAttrTruncated = "mcp.truncated"

	// SpanAttrReadOnly indicates whether the server runs in read-only mode.
	SpanAttrReadOnly = "mcp.read_only"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming and cardinality controls.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithTool adds the MCP tool name attribute.
func (b *SpanAttributeBuilder) WithTool(tool string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrTool, tool))
	return b
}

// WithRequest adds the method and templated path of a Jira API call.
func (b *SpanAttributeBuilder) WithRequest(method, path string) *SpanAttributeBuilder {
	if method != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrMethod, method))
	}
	if path != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrPathTemplate, TemplatePath(path)))
	}
	return b
}

// WithUser adds the account's email domain.
func (b *SpanAttributeBuilder) WithUser(email string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrUserDomain, ExtractUserDomain(email)))
	return b
}

// WithOutput adds the output format and whether a filter was supplied.
func (b *SpanAttributeBuilder) WithOutput(format string, filtered bool) *SpanAttributeBuilder {
	if format != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrOutputFormat, format))
	}
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrFiltered, filtered))
	return b
}

// WithTruncated adds the truncation indicator attribute.
func (b *SpanAttributeBuilder) WithTruncated(truncated bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrTruncated, truncated))
	return b
}

// WithReadOnly adds the read-only indicator attribute.
func (b *SpanAttributeBuilder) WithReadOnly(readOnly bool) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.Bool(SpanAttrReadOnly, readOnly))
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartJiraSpan starts a client span for a Jira REST API call.
func StartJiraSpan(ctx context.Context, method, path string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := NewSpanAttributeBuilder().WithRequest(method, path).Build()
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "jira."+method,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartRenderSpan starts an internal span covering filter, encode and truncate.
func StartRenderSpan(ctx context.Context, format string, filtered bool) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "render",
		trace.WithAttributes(NewSpanAttributeBuilder().WithOutput(format, filtered).Build()...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddSpanEvent adds an event to the span with optional attributes.
func AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
// Returns empty string if no valid span is present.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}

// SpanContextString returns a human-readable trace context string.
// Format: "trace_id=X span_id=Y" or empty string if no valid context.
func SpanContextString(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return ""
	}
	return "trace_id=" + span.SpanContext().TraceID().String() +
		" span_id=" + span.SpanContext().SpanID().String()
}
