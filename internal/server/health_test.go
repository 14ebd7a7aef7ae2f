package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

func newTestServerContext(t *testing.T, opts ...Option) *ServerContext {
	t.Helper()
	opts = append([]Option{WithJiraClient(newFakeClient()), WithVersion("1.2.3")}, opts...)
	sc, err := NewServerContext(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthChecker_SetReady(t *testing.T) {
	h := NewHealthChecker(newTestServerContext(t))
	assert.True(t, h.IsReady(), "HealthChecker should start ready")
	assert.False(t, h.startTime.IsZero())

	h.SetReady(false)
	assert.False(t, h.IsReady())

	h.SetReady(true)
	assert.True(t, h.IsReady())
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(newTestServerContext(t))

	rec := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "1.2.3", response.Version)
}

func TestLivenessHandler_NilServerContext(t *testing.T) {
	h := NewHealthChecker(nil)
	rec := serve(t, h.LivenessHandler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		notReady   bool
		shutdown   bool
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "ready",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"ready": "ok", "shutdown": "ok", "encoder": "uninitialized"},
		},
		{
			name:       "not ready",
			notReady:   true,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"ready": "not ready"},
		},
		{
			name:       "shutting down",
			shutdown:   true,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not ready",
			wantChecks: map[string]string{"shutdown": "shutting down"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newTestServerContext(t)
			h := NewHealthChecker(sc)
			if tt.notReady {
				h.SetReady(false)
			}
			if tt.shutdown {
				require.NoError(t, sc.Shutdown())
			}

			rec := serve(t, h.ReadinessHandler(), "/readyz")
			assert.Equal(t, tt.wantCode, rec.Code)

			var response HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantStatus, response.Status)
			for k, v := range tt.wantChecks {
				assert.Equal(t, v, response.Checks[k], "check %q", k)
			}
		})
	}
}

func TestReadinessHandler_EncoderStates(t *testing.T) {
	failing := output.NewEncoderHandle(func(context.Context) (output.CompactEncoder, error) {
		return nil, assert.AnError
	}, nil)
	_ = failing.EnsureLoaded(context.Background())

	sc := newTestServerContext(t, WithProcessor(output.NewProcessor(nil, output.WithEncoderHandle(failing))))
	rec := serve(t, NewHealthChecker(sc).ReadinessHandler(), "/readyz")

	// JSON fallback keeps the server usable.
	assert.Equal(t, http.StatusOK, rec.Code)
	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "failed", response.Checks["encoder"])
}

func TestReadinessHandler_Instrumentation(t *testing.T) {
	disabled, err := instrumentation.NewProvider(context.Background(), instrumentation.Config{Enabled: false})
	require.NoError(t, err)

	sc := newTestServerContext(t, WithInstrumentationProvider(disabled))
	rec := serve(t, NewHealthChecker(sc).ReadinessHandler(), "/readyz")

	var response HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "disabled", response.Checks["instrumentation"])
}

func TestDetailedHealthHandler(t *testing.T) {
	processor := output.NewProcessor(&output.Config{MaxResponseChars: 8000, DefaultFormat: output.FormatVerbose})
	sc := newTestServerContext(t,
		WithReadOnly(true),
		WithProcessor(processor),
	)
	sc.config.AuthMode = "basic"

	rec := serve(t, NewHealthChecker(sc).DetailedHealthHandler(), "/healthz/detailed")
	assert.Equal(t, http.StatusOK, rec.Code)

	var response DetailedHealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))

	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, ModeReadOnly, response.Mode)
	assert.Equal(t, "1.2.3", response.Version)
	assert.NotEmpty(t, response.Uptime)

	require.NotNil(t, response.Jira)
	assert.Equal(t, "https://acme.atlassian.net", response.Jira.Site)
	assert.Equal(t, "basic", response.Jira.AuthMode)

	require.NotNil(t, response.Output)
	assert.Equal(t, "json", response.Output.DefaultFormat)
	assert.Equal(t, 8000, response.Output.MaxResponseChars)
	assert.Equal(t, "uninitialized", response.Output.EncoderState)

	require.NotNil(t, response.Instrumentation)
	assert.False(t, response.Instrumentation.Enabled)
}

func TestDetailedHealthHandler_Modes(t *testing.T) {
	sc := newTestServerContext(t)
	h := NewHealthChecker(sc)

	var response DetailedHealthResponse
	rec := serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, ModeReadWrite, response.Mode)

	h.SetReady(false)
	rec = serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", response.Status)

	h.SetReady(true)
	require.NoError(t, sc.Shutdown())
	rec = serve(t, h.DetailedHealthHandler(), "/healthz/detailed")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutting down", response.Status)

	nilRec := serve(t, NewHealthChecker(nil).DetailedHealthHandler(), "/healthz/detailed")
	var nilResponse DetailedHealthResponse
	require.NoError(t, json.Unmarshal(nilRec.Body.Bytes(), &nilResponse))
	assert.Equal(t, "unknown", nilResponse.Mode)
}

func TestRegisterHealthEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	NewHealthChecker(newTestServerContext(t)).RegisterHealthEndpoints(mux)

	for _, path := range []string{"/healthz", "/readyz", "/healthz/detailed"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(t, mux, path)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestIsReservedPath(t *testing.T) {
	for _, p := range []string{PathLiveness, PathReadiness, PathDetailedHealth} {
		assert.True(t, IsReservedPath(p), p)
	}
	for _, p := range []string{"/mcp", "/sse", "/healthz/", ""} {
		assert.False(t, IsReservedPath(p), p)
	}
}
