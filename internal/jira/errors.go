package jira

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-json-experiment/json"
)

var (
	// ErrCredentialsMissing is returned when no usable credentials are configured.
	ErrCredentialsMissing = errors.New("atlassian credentials are missing")

	// ErrUnsupportedMethod is returned for HTTP methods the client does not send.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")

	// ErrUnexpectedHTML is returned when Jira answers with an HTML page,
	// typically a login redirect.
	ErrUnexpectedHTML = errors.New("jira returned HTML instead of JSON (likely a login page)")

	// ErrResponseTooLarge is returned when a response body exceeds MaxResponseBytes.
	ErrResponseTooLarge = errors.New("jira response too large")
)

// APIError describes a non-2xx response from Jira.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("jira %s %s failed with status %d", e.Method, e.Path, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if hint := e.Hint(); hint != "" {
		msg += ". " + hint
	}
	return msg
}

// Hint returns a remediation hint for common statuses.
func (e *APIError) Hint() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "Check ATLASSIAN_USER_EMAIL and ATLASSIAN_API_TOKEN (or ATLASSIAN_OAUTH_ACCESS_TOKEN)"
	case http.StatusForbidden:
		return "The account lacks permission for this operation"
	case http.StatusNotFound:
		return "The resource does not exist or is not visible to this account"
	case http.StatusTooManyRequests:
		return "Rate limited by Jira; retry later"
	default:
		return ""
	}
}

// IsNotFound reports whether err is a 404 from Jira.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from Jira.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// errorBody is the error envelope Jira uses across the REST API.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
	Message       string            `json:"message"`
}

// extractMessage folds Jira's error envelope into a single line.
func extractMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return strings.TrimSpace(truncateBody(string(body), 200))
	}

	parts := append([]string{}, eb.ErrorMessages...)
	keys := make([]string, 0, len(eb.Errors))
	for k := range eb.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+eb.Errors[k])
	}
	if eb.Message != "" {
		parts = append(parts, eb.Message)
	}
	return strings.Join(parts, "; ")
}

func truncateBody(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
