package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/giantswarm/mcp-jira/internal/instrumentation"
	"github.com/giantswarm/mcp-jira/internal/jira"
	"github.com/giantswarm/mcp-jira/internal/logging"
	"github.com/giantswarm/mcp-jira/internal/server"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// ErrReadOnly is returned for write methods when read-only mode is enabled.
var ErrReadOnly = errors.New("write operations are disabled in read-only mode")

// Request is one call through the controller.
type Request struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        map[string]any
	Render      output.RenderOptions
}

// Response is the rendered result of a call.
type Response struct {
	// Content is the filtered, encoded and possibly truncated body.
	Content string `json:"content"`

	// RawResponsePath locates the complete response on disk, if it was saved.
	RawResponsePath string `json:"rawResponsePath,omitempty"`

	// Truncated reports whether Content was cut.
	Truncated bool `json:"truncated,omitempty"`
}

// Controller calls Jira and renders the response.
type Controller struct {
	client    server.JiraClient
	processor *output.Processor
	readOnly  bool
	logger    *slog.Logger
}

// NewController creates a controller. A nil processor selects the default
// pipeline configuration.
func NewController(client server.JiraClient, processor *output.Processor, readOnly bool, logger *slog.Logger) *Controller {
	if processor == nil {
		processor = output.NewProcessor(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		client:    client,
		processor: processor,
		readOnly:  readOnly,
		logger:    logger,
	}
}

// NewControllerFromContext builds a controller from the server's dependencies.
func NewControllerFromContext(sc *server.ServerContext) *Controller {
	return NewController(sc.JiraClient(), sc.Processor(), sc.ReadOnly(), sc.Logger())
}

// IsWriteMethod reports whether method modifies Jira data.
func IsWriteMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, "":
		return false
	default:
		return true
	}
}

// Handle performs req and renders the response.
func (c *Controller) Handle(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	path := jira.NormalizePath(req.Path)

	instrumentation.InvocationFromContext(ctx).WithRequest(method, path)

	if c.readOnly && IsWriteMethod(method) {
		return nil, fmt.Errorf("%w: %s %s", ErrReadOnly, method, path)
	}

	logger := logging.WithOperation(c.logger, "api."+strings.ToLower(method))
	logger.Debug("making request", logging.Method(method), logging.Path(path), slog.Int("body_keys", len(req.Body)))

	resp, err := c.client.Do(ctx, jira.Request{
		Method:      method,
		Path:        path,
		QueryParams: req.QueryParams,
		Body:        req.Body,
	})
	if err != nil {
		return nil, err
	}

	opts := req.Render
	opts.RawResponsePath = resp.RawResponsePath

	format := opts.OutputFormat
	if format == "" {
		format = c.processor.Config().DefaultFormat
	}
	ctx, span := instrumentation.StartRenderSpan(ctx, format.String(), strings.TrimSpace(opts.FilterExpression) != "")
	result := c.processor.RenderResult(ctx, resp.Data, opts)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithTruncated(result.Truncated()).Build()...)
	span.End()

	logger.Debug("rendered response",
		slog.String(logging.KeyFormat, result.Format.String()),
		slog.Int("chars", result.EncodedChars),
		slog.Bool("truncated", result.Truncated()))

	return &Response{
		Content:         result.Text,
		RawResponsePath: resp.RawResponsePath,
		Truncated:       result.Truncated(),
	}, nil
}

// Get performs a GET request.
func (c *Controller) Get(ctx context.Context, path string, query map[string]string, render output.RenderOptions) (*Response, error) {
	return c.Handle(ctx, Request{Method: http.MethodGet, Path: path, QueryParams: query, Render: render})
}

// Post performs a POST request.
func (c *Controller) Post(ctx context.Context, path string, query map[string]string, body map[string]any, render output.RenderOptions) (*Response, error) {
	return c.Handle(ctx, Request{Method: http.MethodPost, Path: path, QueryParams: query, Body: body, Render: render})
}
