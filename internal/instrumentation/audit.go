package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/giantswarm/mcp-jira/internal/logging"
)

// ToolInvocation captures one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool      string
	Method    string
	Path      string
	UserEmail string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	Truncated bool

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a call to tool.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser records the account the call runs as.
func (ti *ToolInvocation) WithUser(email string) *ToolInvocation {
	ti.UserEmail = email
	return ti
}

// WithRequest records the Jira API call the tool makes. It is a no-op on a
// nil receiver so callers can use InvocationFromContext unconditionally.
func (ti *ToolInvocation) WithRequest(method, path string) *ToolInvocation {
	if ti == nil {
		return nil
	}
	ti.Method = method
	ti.Path = path
	return ti
}

// WithTruncated records whether the rendered response was cut.
func (ti *ToolInvocation) WithTruncated(truncated bool) *ToolInvocation {
	if ti == nil {
		return nil
	}
	ti.Truncated = truncated
	return ti
}

// WithSpanContext copies trace and span IDs from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the timer and records the outcome.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteSuccess marks the call as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// CompleteWithError marks the call as failed.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// UserDomain returns the email domain of the account.
func (ti *ToolInvocation) UserDomain() string {
	return ExtractUserDomain(ti.UserEmail)
}

// LogAttrs returns low-cardinality attributes suitable for aggregation.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.String("user_domain", ti.UserDomain()),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Method != "" {
		attrs = append(attrs, slog.String("method", ti.Method))
	}
	if ti.Path != "" {
		attrs = append(attrs, slog.String("path_template", TemplatePath(ti.Path)))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	return attrs
}

// LogAuditAttrs returns the full audit record. The account is hashed, the
// path keeps issue keys but drops the query string.
func (ti *ToolInvocation) LogAuditAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		logging.UserHash(ti.UserEmail),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
		slog.Bool("truncated", ti.Truncated),
	}
	if ti.Method != "" {
		attrs = append(attrs, logging.Method(ti.Method))
	}
	if ti.Path != "" {
		attrs = append(attrs, logging.Path(ti.Path))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	return attrs
}

// AuditLogger writes tool invocations as structured log records.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates an AuditLogger. A nil logger selects slog.Default().
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger}
}

// LogToolInvocation writes ti at info level, or warn level when it failed.
func (a *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if a == nil || ti == nil {
		return
	}
	level := slog.LevelInfo
	if !ti.Success {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(context.Background(), level, "tool invocation", ti.LogAuditAttrs()...)
}

type invocationKey struct{}

// ContextWithInvocation returns a copy of ctx carrying ti, so that code deeper
// in the call can annotate the audit record.
func ContextWithInvocation(ctx context.Context, ti *ToolInvocation) context.Context {
	return context.WithValue(ctx, invocationKey{}, ti)
}

// InvocationFromContext returns the invocation stored by
// ContextWithInvocation, or nil.
func InvocationFromContext(ctx context.Context) *ToolInvocation {
	ti, _ := ctx.Value(invocationKey{}).(*ToolInvocation)
	return ti
}

// TraceIDFromContext returns the trace ID in ctx, or "".
func TraceIDFromContext(ctx context.Context) string {
	return GetTraceID(ctx)
}
