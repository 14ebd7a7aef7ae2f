// Package api exposes the Jira REST API as generic MCP tools (jira_get,
// jira_post, jira_put, jira_patch, jira_delete) and provides the Controller
// shared with the CLI. Every response goes through the output pipeline:
// JMESPath filter, TOON or JSON encoding, then truncation.
package api
