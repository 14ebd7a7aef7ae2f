package middleware

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/logging"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	bytes      int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing the header.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

// Write records that a response was written and how much.
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Unwrap returns the underlying ResponseWriter to support http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Flush implements http.Flusher. SSE streams depend on it.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetrics records request count and latency per method, normalized path
// and status. A nil or disabled provider makes it a pass-through.
func HTTPMetrics(provider *instrumentation.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !provider.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			provider.Metrics().RecordHTTPRequest(
				r.Context(),
				r.Method,
				normalizePath(r.URL.Path),
				wrapped.statusCode,
				time.Since(start),
			)
		})
	}
}

// RequestLogger logs one line per request at debug level, or warn for 5xx.
// Query strings are never logged since session IDs travel in them.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			level := slog.LevelDebug
			if wrapped.statusCode >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http request",
				logging.Method(r.Method),
				logging.Path(normalizePath(r.URL.Path)),
				slog.Int(logging.KeyStatus, wrapped.statusCode),
				slog.Int("bytes", wrapped.bytes),
				slog.Duration(logging.KeyDuration, time.Since(start)))
		})
	}
}

var (
	uuidPattern      = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
	numericIDPattern = regexp.MustCompile(`/\d+(/|$)`)
)

// knownRoutes are served as-is. Anything else collapses to a bounded label.
var knownRoutes = map[string]bool{
	"/mcp":              true,
	"/sse":              true,
	"/message":          true,
	"/healthz":          true,
	"/readyz":           true,
	"/healthz/detailed": true,
	"/metrics":          true,
}

// normalizePath bounds metric cardinality. Known routes are kept, sub-paths
// of the MCP endpoint become "/mcp/:session", and other paths have UUIDs and
// numeric segments replaced.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if knownRoutes[path] {
		return path
	}
	trimmed := strings.TrimSuffix(path, "/")
	if knownRoutes[trimmed] {
		return trimmed
	}
	if strings.HasPrefix(path, "/mcp/") {
		return "/mcp/:session"
	}

	path = uuidPattern.ReplaceAllString(path, ":uuid")
	// Applied twice since adjacent numeric segments share a slash.
	path = numericIDPattern.ReplaceAllString(path, "/:id$1")
	path = numericIDPattern.ReplaceAllString(path, "/:id$1")
	return path
}
