package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		hsts     bool
		hasTLS   bool
		wantHSTS bool
	}{
		{name: "HSTS enabled with TLS", hsts: true, hasTLS: true, wantHSTS: true},
		{name: "HSTS enabled without TLS", hsts: true, wantHSTS: true},
		{name: "HSTS disabled with TLS", hasTLS: true, wantHSTS: true},
		{name: "HSTS disabled without TLS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
			if tt.hasTLS {
				req.TLS = &tls.ConnectionState{}
			}
			rec := httptest.NewRecorder()

			SecurityHeaders(SecurityHeadersConfig{EnableHSTS: tt.hsts})(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
			if tt.wantHSTS {
				assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
			} else {
				assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
			}
		})
	}
}

func TestCORS(t *testing.T) {
	allowed := []string{"https://app.example.com", "http://localhost:3000"}

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantCode   int
	}{
		{
			name:       "allowed origin",
			method:     http.MethodPost,
			origin:     "https://app.example.com",
			wantOrigin: "https://app.example.com",
			wantCode:   http.StatusOK,
		},
		{
			name:     "disallowed origin",
			method:   http.MethodPost,
			origin:   "https://evil.example.com",
			wantCode: http.StatusOK,
		},
		{
			name:     "no origin",
			method:   http.MethodGet,
			wantCode: http.StatusOK,
		},
		{
			name:       "preflight",
			method:     http.MethodOptions,
			origin:     "http://localhost:3000",
			wantOrigin: "http://localhost:3000",
			wantCode:   http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tt.method, "/mcp", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(allowed)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Mcp-Session-Id")
			assert.Equal(t, tt.method != http.MethodOptions, called)
			if tt.wantOrigin != "" {
				assert.Equal(t, "Mcp-Session-Id", rec.Header().Get("Access-Control-Expose-Headers"))
			}
		})
	}
}

func TestCORS_NoAllowedOrigins(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	CORS(nil)(okHandler()).ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestValidateAllowedOrigins(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "", want: nil},
		{name: "blank", input: "  ", want: nil},
		{
			name:  "multiple with spaces",
			input: "https://a.example.com, http://localhost:3000 ,",
			want:  []string{"https://a.example.com", "http://localhost:3000"},
		},
		{name: "trailing slash dropped", input: "https://A.example.com/", want: []string{"https://a.example.com"}},
		{name: "missing scheme", input: "example.com", wantErr: "must include scheme and host"},
		{name: "bad scheme", input: "ftp://example.com", wantErr: "must use http or https"},
		{name: "path", input: "https://example.com/app", wantErr: "should not include path"},
		{name: "query", input: "https://example.com?x=1", wantErr: "should not include path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateAllowedOrigins(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
