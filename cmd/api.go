package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// apiOptions are the flags shared by the API commands.
type apiOptions struct {
	Path         string
	QueryParams  string
	Body         string
	JQ           string
	OutputFormat string
}

type apiCommandSpec struct {
	use      string
	method   string
	short    string
	withBody bool
}

var apiCommandSpecs = []apiCommandSpec{
	{use: "get", method: http.MethodGet, short: "GET any Jira endpoint"},
	{use: "post", method: http.MethodPost, short: "POST to any Jira endpoint", withBody: true},
	{use: "put", method: http.MethodPut, short: "PUT to any Jira endpoint", withBody: true},
	{use: "patch", method: http.MethodPatch, short: "PATCH any Jira endpoint", withBody: true},
	{use: "delete", method: http.MethodDelete, short: "DELETE any Jira endpoint"},
}

// newAPICmds creates one command per HTTP method.
func newAPICmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(apiCommandSpecs))
	for _, spec := range apiCommandSpecs {
		cmds = append(cmds, newAPICmd(spec))
	}
	return cmds
}

func newAPICmd(spec apiCommandSpec) *cobra.Command {
	var (
		opts  apiOptions
		debug bool
	)

	cmd := &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Long: spec.short + `. Returns TOON by default (or JSON with --output-format json),
optionally filtered with a JMESPath expression (--jq).

The complete response is saved to disk; when the output is truncated the
file path is printed with the truncation notice.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAPI(cmd.Context(), cmd.OutOrStdout(), spec.method, opts, runtimeOptions{
				LogOutput: os.Stderr,
				Debug:     debug,
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Path, "path", "p", "", `API endpoint path (e.g. "/rest/api/3/project", "/rest/api/3/issue/{issueKey}")`)
	cmd.Flags().StringVarP(&opts.QueryParams, "query-params", "q", "", `Query parameters as a JSON object (e.g. '{"maxResults": "50"}')`)
	if spec.withBody {
		cmd.Flags().StringVarP(&opts.Body, "body", "b", "", "Request body as a JSON object")
		_ = cmd.MarkFlagRequired("body")
	}
	addRenderFlags(cmd, &opts.JQ, &opts.OutputFormat, &debug)
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

// runAPI performs one API call and writes the rendered response to out.
func runAPI(ctx context.Context, out io.Writer, method string, opts apiOptions, rtOpts runtimeOptions) error {
	req, err := buildAPIRequest(method, opts)
	if err != nil {
		return err
	}
	return runRequest(ctx, out, req, rtOpts)
}

// runRequest sends req through the controller and writes the rendered
// response to out.
func runRequest(ctx context.Context, out io.Writer, req api.Request, rtOpts runtimeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, rtOpts)
	if err != nil {
		return err
	}
	defer rt.Close()

	controller := api.NewController(rt.Client, rt.Processor, rt.Settings.ReadOnly, rt.Logger)
	resp, err := controller.Handle(ctx, req)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, resp.Content)
	return err
}

// buildAPIRequest validates the command flags.
func buildAPIRequest(method string, opts apiOptions) (api.Request, error) {
	req := api.Request{Method: method}

	if strings.TrimSpace(opts.Path) == "" {
		return req, fmt.Errorf("--path is required")
	}
	req.Path = opts.Path

	if opts.QueryParams != "" {
		obj, err := parseJSONObject("query-params", opts.QueryParams)
		if err != nil {
			return req, err
		}
		query, err := tools.StringMapArg(map[string]any{"query-params": obj}, "query-params")
		if err != nil {
			return req, err
		}
		req.QueryParams = query
	}

	if api.IsWriteMethod(method) && method != http.MethodDelete {
		if opts.Body == "" {
			return req, fmt.Errorf("--body is required")
		}
		body, err := parseJSONObject("body", opts.Body)
		if err != nil {
			return req, err
		}
		req.Body = body
	}

	render, err := renderOptions(opts.JQ, opts.OutputFormat)
	if err != nil {
		return req, err
	}
	req.Render = render
	return req, nil
}

// renderOptions validates the --jq and --output-format flags.
func renderOptions(jq, outputFormat string) (output.RenderOptions, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return output.RenderOptions{}, err
	}
	return output.RenderOptions{FilterExpression: jq, OutputFormat: format}, nil
}

// addRenderFlags registers the flags shared by every command that prints a
// Jira response.
func addRenderFlags(cmd *cobra.Command, jq, outputFormat *string, debug *bool) {
	cmd.Flags().StringVar(jq, "jq", "", "JMESPath expression to filter/transform the response")
	cmd.Flags().StringVar(outputFormat, "output-format", string(output.FormatCompact), `Output format: "toon" (token-efficient) or "json"`)
	cmd.Flags().BoolVar(debug, "debug", false, "Enable debug logging on stderr")
}

// parseJSONObject decodes a flag value that must hold a JSON object.
func parseJSONObject(flag, raw string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("Invalid JSON in --%s. Please provide valid JSON.", flag) //nolint:staticcheck // user-facing message
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Invalid --%s: expected a JSON object, got %s.", flag, tools.JSONKind(v)) //nolint:staticcheck // user-facing message
	}
	return obj, nil
}
