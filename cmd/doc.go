// Package cmd provides the command-line interface for mcp-jira.
//
// This package implements a Cobra-based CLI with multiple subcommands:
//   - serve: Starts the MCP server (default behavior when no subcommand is provided)
//   - get, post, put, patch, delete: Call any Jira REST endpoint from the shell
//   - version: Displays the application version
//   - self-update: Updates the binary to the latest version from GitHub releases
//
// Command Structure:
//
//	mcp-jira [flags]                                  # Starts the MCP server (default)
//	mcp-jira serve [flags]                            # Explicitly starts the MCP server
//	mcp-jira get -p /rest/api/3/project --jq '[*].key'
//	mcp-jira post -p /rest/api/3/issue -b '{"fields": {...}}'
//	mcp-jira version                                  # Shows version information
//	mcp-jira self-update                              # Updates to latest release
//
// The serve command supports multiple transport options:
//   - stdio: Standard input/output (default) - for command-line integration
//   - sse: Server-Sent Events over HTTP - for web-based clients
//   - streamable-http: Streamable HTTP transport - for HTTP-based integration
//
// Transport Configuration Examples:
//
//	mcp-jira serve --transport stdio           # Default STDIO transport
//	mcp-jira serve --transport sse --http-addr :8080 --sse-endpoint /sse
//	mcp-jira serve --transport streamable-http --http-addr :9000 --http-endpoint /mcp
//
// Both the server and the API commands load Jira credentials from the
// environment, a .env file or ~/.mcp/configs.json, and render responses
// through the same filter, encode and truncate pipeline.
package cmd
