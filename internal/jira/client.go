package jira

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-json-experiment/json"
	"golang.org/x/oauth2"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/logging"
)

const (
	// DefaultTimeout bounds a single API call.
	DefaultTimeout = 60 * time.Second

	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes = 64 << 20

	defaultUserAgent = "mcp-jira"
)

// Supported HTTP methods.
var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// methodsWithBody lists the methods that carry a request body.
var methodsWithBody = map[string]bool{
	http.MethodPost:  true,
	http.MethodPut:   true,
	http.MethodPatch: true,
}

// Request describes one API call.
type Request struct {
	// Method is the HTTP method. Empty means GET.
	Method string

	// Path is the API path, e.g. "/rest/api/3/project". A missing leading
	// slash is added.
	Path string

	// QueryParams are appended to Path.
	QueryParams map[string]string

	// Body is sent as JSON for POST, PUT and PATCH and ignored otherwise.
	Body map[string]any
}

// Response is a decoded API response.
type Response struct {
	// Data is the decoded JSON payload. Empty bodies decode to an empty object.
	Data any

	// StatusCode is the HTTP status.
	StatusCode int

	// RawResponsePath is where the complete exchange was saved, if it was.
	RawResponsePath string

	// Duration is the round-trip time.
	Duration time.Duration
}

// RequestObserver is notified after every API call.
type RequestObserver func(ctx context.Context, method, path string, statusCode int, duration time.Duration)

// Client calls the Jira REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      *RawResponseStore
	logger     *slog.Logger
	observer   RequestObserver
	userAgent  string
	authMode   string
	maxBody    int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Authentication is layered
// on top of its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRawResponseStore enables persistence of complete responses.
func WithRawResponseStore(s *RawResponseStore) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestObserver registers a callback invoked after every API call.
func WithRequestObserver(o RequestObserver) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the site and account in creds.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:   creds.ResolvedBaseURL(),
		userAgent: defaultUserAgent,
		maxBody:   MaxResponseBytes,
		authMode:  creds.AuthMode(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	base := &http.Client{Timeout: DefaultTimeout}
	if c.httpClient != nil {
		clone := *c.httpClient
		base = &clone
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if creds.AccessToken != "" {
		base.Transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken, TokenType: "Bearer"}),
		}
	} else {
		base.Transport = &basicAuthTransport{
			base:     transport,
			username: creds.UserEmail,
			password: creds.APIToken,
		}
	}
	c.httpClient = base

	c.logger.Debug("jira client configured",
		logging.Host(c.baseURL),
		slog.String("auth", c.authMode),
		logging.UserHash(creds.UserEmail))

	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs req and decodes the JSON response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if !supportedMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}

	path := NormalizePath(req.Path)
	target := c.baseURL + AppendQueryParams(path, req.QueryParams)

	var reqBody []byte
	if methodsWithBody[method] && req.Body != nil {
		var err error
		reqBody, err = json.Marshal(req.Body, json.Deterministic(true))
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	ctx, span := instrumentation.StartJiraSpan(ctx, method, path)
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader(reqBody))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if reqBody != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("calling jira api", logging.Method(method), logging.Path(path))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(ctx, method, path, 0, time.Since(start))
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("jira %s %s: %w", method, path, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBody+1))
	duration := time.Since(start)
	c.observe(ctx, method, path, httpResp.StatusCode, duration)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, fmt.Errorf("failed to read jira response: %w", err)
	}
	if int64(len(respBody)) > c.maxBody {
		err := fmt.Errorf("%w: %s %s exceeds %d bytes, narrow the request with fields, maxResults or a more specific path",
			ErrResponseTooLarge, method, path, c.maxBody)
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		apiErr := &APIError{
			StatusCode: httpResp.StatusCode,
			Method:     method,
			Path:       path,
			Message:    extractMessage(respBody),
			Body:       string(respBody),
		}
		instrumentation.SetSpanError(span, apiErr)
		c.logger.Debug("jira api error",
			logging.Method(method),
			logging.Path(path),
			slog.Int(logging.KeyStatus, httpResp.StatusCode))
		return nil, apiErr
	}

	if looksLikeHTML(httpResp.Header.Get("Content-Type"), respBody) {
		instrumentation.SetSpanError(span, ErrUnexpectedHTML)
		return nil, ErrUnexpectedHTML
	}

	data, err := decode(respBody)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return nil, err
	}

	resp := &Response{
		Data:       data,
		StatusCode: httpResp.StatusCode,
		Duration:   duration,
	}

	if c.store != nil {
		rawPath, err := c.store.Save(RawRecord{
			Method:       method,
			URL:          target,
			StatusCode:   httpResp.StatusCode,
			Duration:     duration,
			RequestBody:  reqBody,
			ResponseBody: respBody,
		})
		if err != nil {
			c.logger.Warn("failed to persist raw response", logging.Err(err))
		} else {
			resp.RawResponsePath = rawPath
		}
	}

	instrumentation.SetSpanSuccess(span)
	return resp, nil
}

func (c *Client) observe(ctx context.Context, method, path string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer(ctx, method, path, status, d)
	}
}

// NormalizePath ensures path starts with "/".
func NormalizePath(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// AppendQueryParams appends params to path, using "&" when path already has
// a query string. Parameters are encoded in key order.
func AppendQueryParams(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := url.Values{}
	for _, k := range keys {
		values.Add(k, params[k])
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + values.Encode()
}

func bodyReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}

func decode(body []byte) (any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("failed to decode jira response: %w", err)
	}
	return data, nil
}

func looksLikeHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return true
	}
	s := strings.ToLower(string(bytes.TrimSpace(body[:min(len(body), 512)])))
	return strings.HasPrefix(s, "<!doctype html") || strings.HasPrefix(s, "<html")
}

// basicAuthTransport adds HTTP basic credentials to every request.
type basicAuthTransport struct {
	base     http.RoundTripper
	username string
	password string
}

// RoundTrip implements http.RoundTripper.
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(clone)
}
