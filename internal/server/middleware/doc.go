// Package middleware provides HTTP middleware for the MCP Jira server's
// network transports: request metrics, access logging, security headers
// and CORS.
package middleware
