// Package tools provides shared utilities for MCP tool implementations.
package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcp-jira/internal/tools/output"
)

// Argument names shared by every tool that renders a Jira response.
const (
	ParamJQ           = "jq"
	ParamOutputFormat = "outputFormat"
)

// Pagination arguments of the list tools.
const (
	ParamLimit  = "limit"
	ParamCursor = "cursor"

	DefaultPageSize = 25
	MaxPageSize     = 100
)

// MaxIntArg bounds whole-number arguments. Jira stores offsets and
// durations as 32-bit values in most endpoints.
const MaxIntArg = math.MaxInt32

// OutputParams returns the tool options for the response-shaping arguments.
//
// Usage in tool registration:
//
//	opts := []mcp.ToolOption{
//	    mcp.WithDescription("..."),
//	    /* tool-specific params */
//	}
//	opts = append(opts, tools.OutputParams()...)
//	tool := mcp.NewTool("tool_name", opts...)
func OutputParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString(ParamJQ,
			mcp.Description(`JMESPath expression to filter/transform the JSON response. Examples: "issues[*].key" (extract keys), "total" (single field), "{key: key, summary: fields.summary}" (reshape object). See https://jmespath.org for syntax.`),
		),
		mcp.WithString(ParamOutputFormat,
			mcp.Description(`Output format: "toon" (default, token-efficient tables) or "json" (pretty-printed JSON). "compact" and "verbose" are accepted as aliases.`),
			mcp.Enum(output.FormatNames()...),
		),
	}
}

// RenderOptionsFromArgs reads jq and outputFormat from tool arguments.
func RenderOptionsFromArgs(args map[string]any) (output.RenderOptions, error) {
	var opts output.RenderOptions

	jq, err := OptionalStringArg(args, ParamJQ)
	if err != nil {
		return opts, err
	}
	opts.FilterExpression = jq

	format, err := OptionalStringArg(args, ParamOutputFormat)
	if err != nil {
		return opts, err
	}
	if strings.TrimSpace(format) != "" {
		f, err := output.ParseFormat(format)
		if err != nil {
			return opts, err
		}
		opts.OutputFormat = f
	}

	return opts, nil
}

// RequiredStringArg returns a non-blank string argument.
func RequiredStringArg(args map[string]any, key string) (string, error) {
	s, err := OptionalStringArg(args, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// OptionalStringArg returns a string argument, or "" when it is absent.
func OptionalStringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %s", key, JSONKind(v))
	}
	return s, nil
}

// ObjectArg returns a JSON object argument, or nil when it is absent.
func ObjectArg(args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must be a JSON object, got %s", key, JSONKind(v))
	}
	return obj, nil
}

// StringMapArg returns an object argument whose values are scalars, as
// query parameters. Numbers and booleans are converted to their JSON text.
func StringMapArg(args map[string]any, key string) (map[string]string, error) {
	obj, err := ObjectArg(args, key)
	if err != nil || obj == nil {
		return nil, err
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		default:
			return nil, fmt.Errorf("%s.%s must be a string, got %s", key, k, JSONKind(v))
		}
	}
	return out, nil
}

// NumberArg returns a numeric argument and whether it was present.
func NumberArg(args map[string]any, key string) (float64, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number, got %s", key, JSONKind(v))
	}
}

// IntArg returns a whole-number argument within [minimum, maximum] and
// whether it was present. The range is checked before conversion.
func IntArg(args map[string]any, key string, minimum, maximum int) (int, bool, error) {
	n, ok, err := NumberArg(args, key)
	if err != nil || !ok {
		return 0, false, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
		return 0, false, fmt.Errorf("%s must be a whole number, got %v", key, n)
	}
	if n < float64(minimum) {
		return 0, false, fmt.Errorf("%s must be at least %d", key, minimum)
	}
	if n > float64(maximum) {
		return 0, false, fmt.Errorf("%s must be at most %d", key, maximum)
	}
	return int(n), true, nil
}

// PageParams returns the limit and cursor tool options. An empty
// cursorDescription describes an offset cursor.
func PageParams(cursorDescription string) []mcp.ToolOption {
	if cursorDescription == "" {
		cursorDescription = `Pagination cursor: the index of the first item to return, e.g. "50" for the third page of 25.`
	}
	return []mcp.ToolOption{
		mcp.WithNumber(ParamLimit,
			mcp.Min(1),
			mcp.Max(MaxPageSize),
			mcp.Description(fmt.Sprintf("Maximum number of items to return (1-%d, default %d).", MaxPageSize, DefaultPageSize)),
		),
		mcp.WithString(ParamCursor,
			mcp.Description(cursorDescription),
		),
	}
}

// PageArgs reads the limit and cursor tool arguments. A missing limit is
// returned as zero.
func PageArgs(args map[string]any) (int, string, error) {
	limit, _, err := IntArg(args, ParamLimit, 1, MaxPageSize)
	if err != nil {
		return 0, "", err
	}
	cursor, err := OptionalStringArg(args, ParamCursor)
	if err != nil {
		return 0, "", err
	}
	return limit, cursor, nil
}

// PageQuery converts a page size and an offset cursor to Jira's maxResults
// and startAt. A zero limit selects DefaultPageSize and an empty cursor the
// first page.
func PageQuery(limit int, cursor string) (map[string]string, error) {
	if limit == 0 {
		limit = DefaultPageSize
	}
	if limit < 1 || limit > MaxPageSize {
		return nil, fmt.Errorf("%s must be between 1 and %d", ParamLimit, MaxPageSize)
	}

	startAt := 0
	if c := strings.TrimSpace(cursor); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 || n > MaxIntArg {
			return nil, fmt.Errorf("%s must be a non-negative item index, got %q", ParamCursor, cursor)
		}
		startAt = n
	}

	return map[string]string{
		"maxResults": strconv.Itoa(limit),
		"startAt":    strconv.Itoa(startAt),
	}, nil
}

// JSONKind names the JSON type of a decoded value.
func JSONKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
