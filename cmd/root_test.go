package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootCmdProperties(t *testing.T) {
	assert.Equal(t, "mcp-jira", rootCmd.Use)
	assert.Equal(t, "MCP server and CLI for the Jira REST API", rootCmd.Short)
	assert.True(t, strings.Contains(rootCmd.Long, "Model Context Protocol"))
	assert.True(t, strings.Contains(rootCmd.Long, "Jira"))
	assert.True(t, rootCmd.SilenceUsage)
}

func TestSetVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() {
		rootCmd.Version = originalVersion
	}()

	testVersion := "v1.2.3-test"
	SetVersion(testVersion)

	assert.Equal(t, testVersion, rootCmd.Version)
}

func TestRootCommandHasSubcommands(t *testing.T) {
	var foundCommands []string
	for _, cmd := range rootCmd.Commands() {
		foundCommands = append(foundCommands, cmd.Use)
	}

	for _, name := range []string{"version", "self-update", "serve", "get", "post", "put", "patch", "delete", "list-issues", "get-issue", "list-projects", "get-project"} {
		assert.Contains(t, foundCommands, name)
	}
}
