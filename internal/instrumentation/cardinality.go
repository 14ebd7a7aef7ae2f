package instrumentation

import (
	"regexp"
	"strings"
)

// Cardinality management helpers for metrics.
// Jira paths embed issue keys, numeric IDs and account IDs. Recording them
// verbatim as labels gives every issue its own time series, so paths are
// reduced to templates before they are used as label values.

const (
	// PathPlaceholderKey replaces issue and project keys.
	PathPlaceholderKey = "{key}"

	// PathPlaceholderID replaces numeric and opaque identifiers.
	PathPlaceholderID = "{id}"

	// maxTemplateSegments caps the depth of a path template.
	maxTemplateSegments = 6
)

var (
	issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]+-[0-9]+$`)
	numericPattern  = regexp.MustCompile(`^[0-9]+$`)
	opaqueIDPattern = regexp.MustCompile(`^[0-9a-fA-F:-]{16,}$`)
	projectSegments = map[string]bool{"project": true}
)

// TemplatePath reduces an API path to a bounded label value.
//
// Examples:
//
//	TemplatePath("/rest/api/3/issue/PROJ-123")             // "/rest/api/3/issue/{key}"
//	TemplatePath("/rest/api/3/issue/10001/worklog/20002")  // "/rest/api/3/issue/{id}/worklog/{id}"
//	TemplatePath("/rest/api/3/project/PROJ")               // "/rest/api/3/project/{key}"
//	TemplatePath("/rest/api/3/search?jql=x")               // "/rest/api/3/search"
//	TemplatePath("")                                       // "/"
func TemplatePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return "/"
	}

	segments := strings.Split(path, "/")
	truncated := false
	if len(segments) > maxTemplateSegments {
		segments = segments[:maxTemplateSegments]
		truncated = true
	}

	for i, seg := range segments {
		switch {
		case issueKeyPattern.MatchString(seg):
			segments[i] = PathPlaceholderKey
		case numericPattern.MatchString(seg) && !isAPIVersion(segments, i):
			segments[i] = PathPlaceholderID
		case opaqueIDPattern.MatchString(seg):
			segments[i] = PathPlaceholderID
		case i > 0 && projectSegments[segments[i-1]]:
			segments[i] = PathPlaceholderKey
		}
	}

	out := "/" + strings.Join(segments, "/")
	if truncated {
		out += "/..."
	}
	return out
}

// isAPIVersion reports whether segments[i] is the version in ".../api/3/...".
func isAPIVersion(segments []string, i int) bool {
	return i > 0 && (segments[i-1] == "api" || segments[i-1] == "agile")
}

// ExtractUserDomain extracts the domain part from an email address.
// This reduces cardinality by using the domain instead of the full email.
//
// Example:
//
//	ExtractUserDomain("jane@acme.com")  // "acme.com"
//	ExtractUserDomain("invalid")        // "unknown"
//	ExtractUserDomain("")               // "unknown"
func ExtractUserDomain(email string) string {
	if email == "" {
		return "unknown"
	}

	parts := strings.Split(email, "@")
	if len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}

	return "unknown"
}
