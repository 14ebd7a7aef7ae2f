package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcp-jira/internal/tools"
	"github.com/giantswarm/mcp-jira/internal/tools/api"
	"github.com/giantswarm/mcp-jira/internal/tools/issue"
	"github.com/giantswarm/mcp-jira/internal/tools/project"
)

// renderFlags are the output flags shared by the browse commands.
type renderFlags struct {
	JQ           string
	OutputFormat string
	Debug        bool
}

type listIssuesOptions struct {
	renderFlags
	JQL    string
	Fields string
	Limit  int
	Cursor string
}

type getIssueOptions struct {
	renderFlags
	IssueIDOrKey string
	Fields       string
	Expand       string
}

type listProjectsOptions struct {
	renderFlags
	Name   string
	Limit  int
	Cursor string
}

type getProjectOptions struct {
	renderFlags
	ProjectKeyOrID string
}

// newBrowseCmds creates the typed issue and project commands.
func newBrowseCmds() []*cobra.Command {
	return []*cobra.Command{
		newListIssuesCmd(),
		newGetIssueCmd(),
		newListProjectsCmd(),
		newGetProjectCmd(),
	}
}

func newListIssuesCmd() *cobra.Command {
	var opts listIssuesOptions
	cmd := &cobra.Command{
		Use:   "list-issues",
		Short: "Search for Jira issues using JQL",
		Long: `Search for Jira issues using JQL, most recently updated first unless the
query has its own ORDER BY clause. Use --cursor with the item index (or the
nextPageToken) of the next page.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildListIssuesRequest(opts)
			if err != nil {
				return err
			}
			return runRequest(cmd.Context(), cmd.OutOrStdout(), req, browseRuntime(opts.renderFlags))
		},
	}
	cmd.Flags().StringVarP(&opts.JQL, "jql", "q", "", `JQL query (e.g. "project = TEAM AND status = 'In Progress'")`)
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "Comma-separated issue fields to return")
	addPageFlags(cmd, &opts.Limit, &opts.Cursor)
	addRenderFlags(cmd, &opts.JQ, &opts.OutputFormat, &opts.Debug)
	return cmd
}

func newGetIssueCmd() *cobra.Command {
	var opts getIssueOptions
	cmd := &cobra.Command{
		Use:   "get-issue",
		Short: "Get a Jira issue by ID or key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildGetIssueRequest(opts)
			if err != nil {
				return err
			}
			return runRequest(cmd.Context(), cmd.OutOrStdout(), req, browseRuntime(opts.renderFlags))
		},
	}
	cmd.Flags().StringVarP(&opts.IssueIDOrKey, "issue-id-or-key", "i", "", `ID or key of the issue (e.g. "PROJ-123")`)
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "Comma-separated issue fields to return")
	cmd.Flags().StringVar(&opts.Expand, "expand", "", `Comma-separated entities to expand (e.g. "changelog")`)
	addRenderFlags(cmd, &opts.JQ, &opts.OutputFormat, &opts.Debug)
	_ = cmd.MarkFlagRequired("issue-id-or-key")
	return cmd
}

func newListProjectsCmd() *cobra.Command {
	var opts listProjectsOptions
	cmd := &cobra.Command{
		Use:   "list-projects",
		Short: "List Jira projects, optionally filtered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildListProjectsRequest(opts)
			if err != nil {
				return err
			}
			return runRequest(cmd.Context(), cmd.OutOrStdout(), req, browseRuntime(opts.renderFlags))
		},
	}
	cmd.Flags().StringVarP(&opts.Name, "name", "n", "", "Filter projects whose key or name contains this text")
	addPageFlags(cmd, &opts.Limit, &opts.Cursor)
	addRenderFlags(cmd, &opts.JQ, &opts.OutputFormat, &opts.Debug)
	return cmd
}

func newGetProjectCmd() *cobra.Command {
	var opts getProjectOptions
	cmd := &cobra.Command{
		Use:   "get-project",
		Short: "Get a Jira project by key or ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildGetProjectRequest(opts)
			if err != nil {
				return err
			}
			return runRequest(cmd.Context(), cmd.OutOrStdout(), req, browseRuntime(opts.renderFlags))
		},
	}
	cmd.Flags().StringVarP(&opts.ProjectKeyOrID, "project-key-or-id", "k", "", `Key or ID of the project (e.g. "PROJ")`)
	addRenderFlags(cmd, &opts.JQ, &opts.OutputFormat, &opts.Debug)
	_ = cmd.MarkFlagRequired("project-key-or-id")
	return cmd
}

func addPageFlags(cmd *cobra.Command, limit *int, cursor *string) {
	cmd.Flags().IntVarP(limit, "limit", "l", tools.DefaultPageSize, fmt.Sprintf("Maximum number of items to return (1-%d)", tools.MaxPageSize))
	cmd.Flags().StringVarP(cursor, "cursor", "c", "", "Pagination cursor for the next page")
}

func browseRuntime(flags renderFlags) runtimeOptions {
	return runtimeOptions{LogOutput: os.Stderr, Debug: flags.Debug}
}

func buildListIssuesRequest(opts listIssuesOptions) (api.Request, error) {
	if err := checkLimit(opts.Limit); err != nil {
		return api.Request{}, err
	}
	req, err := issue.ListRequest(issue.ListOptions{
		JQL:    opts.JQL,
		Fields: opts.Fields,
		Limit:  opts.Limit,
		Cursor: opts.Cursor,
	})
	if err != nil {
		return req, err
	}
	req.Render, err = renderOptions(opts.JQ, opts.OutputFormat)
	return req, err
}

func buildGetIssueRequest(opts getIssueOptions) (api.Request, error) {
	if strings.TrimSpace(opts.IssueIDOrKey) == "" {
		return api.Request{}, fmt.Errorf("Issue ID or key must not be empty.") //nolint:staticcheck // user-facing message
	}
	req := issue.GetRequest(opts.IssueIDOrKey, opts.Fields, opts.Expand)
	var err error
	req.Render, err = renderOptions(opts.JQ, opts.OutputFormat)
	return req, err
}

func buildListProjectsRequest(opts listProjectsOptions) (api.Request, error) {
	if err := checkLimit(opts.Limit); err != nil {
		return api.Request{}, err
	}
	req, err := project.ListRequest(opts.Name, opts.Limit, opts.Cursor)
	if err != nil {
		return req, err
	}
	req.Render, err = renderOptions(opts.JQ, opts.OutputFormat)
	return req, err
}

func buildGetProjectRequest(opts getProjectOptions) (api.Request, error) {
	if strings.TrimSpace(opts.ProjectKeyOrID) == "" {
		return api.Request{}, fmt.Errorf("Project key or ID must not be empty.") //nolint:staticcheck // user-facing message
	}
	req := project.GetRequest(opts.ProjectKeyOrID)
	var err error
	req.Render, err = renderOptions(opts.JQ, opts.OutputFormat)
	return req, err
}

// checkLimit rejects a --limit that Jira would ignore or clamp.
func checkLimit(limit int) error {
	if limit < 1 {
		return fmt.Errorf("Invalid --limit value: Must be a positive integer.") //nolint:staticcheck // user-facing message
	}
	if limit > tools.MaxPageSize {
		return fmt.Errorf("Invalid --limit value: Must be at most %d.", tools.MaxPageSize) //nolint:staticcheck // user-facing message
	}
	return nil
}
