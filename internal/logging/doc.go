// Package logging provides structured logging utilities for mcp-jira.
//
// All output goes through log/slog. Loggers write to stderr because stdout is
// reserved for the stdio MCP transport and for CLI command output.
//
// # Usage Patterns
//
// Build the process logger once and derive scoped loggers from it:
//
//	logger := logging.New(os.Stderr, debug)
//	toolLogger := logging.WithTool(logger, "jira_get")
//	toolLogger.Info("calling jira",
//	    logging.Method("GET"),
//	    logging.Path("/rest/api/3/search"))
//
// # Security Considerations
//
//   - Account emails are hashed with [UserHash] so log lines can be
//     correlated without exposing PII
//   - API tokens are only ever logged through [SanitizeToken]
//   - Site URLs pass through [SanitizeHost], which drops embedded credentials
//     and redacts IP literals
package logging
