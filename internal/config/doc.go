// Package config resolves settings for mcp-jira from the process
// environment, a .env file and the shared ~/.mcp/configs.json file.
//
// Sources are consulted in order of priority:
//
//  1. process environment
//  2. .env in the working directory
//  3. the "environments" map of this server's entry in ~/.mcp/configs.json
//
// Missing or unreadable files are skipped. Values are never written back to
// the process environment.
package config
