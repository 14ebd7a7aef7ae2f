package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-jira application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcp-jira",
	Short: "MCP server and CLI for the Jira REST API",
	Long: `mcp-jira is a Model Context Protocol (MCP) server that gives AI assistants
access to the Jira Cloud REST API. Every response is filtered with JMESPath,
encoded in a token-efficient format and bounded in size.

The same API is available from the command line through the get, post, put,
patch and delete commands.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-jira serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-jira version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newAPICmds()...)
	rootCmd.AddCommand(newBrowseCmds()...)
}
