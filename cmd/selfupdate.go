package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// githubRepoSlug is the repository releases are downloaded from.
const githubRepoSlug = "giantswarm/mcp-jira"

// checksumsFile is the release asset listing SHA-256 sums of the archives.
const checksumsFile = "checksums.txt"

// newSelfUpdateCmd creates the Cobra command for updating the binary in place.
func newSelfUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "self-update",
		Short: "Update mcp-jira to the latest version",
		Long: `Checks GitHub releases of mcp-jira for a newer version and, if one is
available, replaces the running binary with it. The downloaded archive is
verified against the release checksums.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			current := rootCmd.Version
			if isDevelopmentVersion(current) {
				return errors.New("cannot self-update a development version, install a release build first")
			}

			updater, err := selfupdate.NewUpdater(selfupdate.Config{
				Validator: &selfupdate.ChecksumValidator{UniqueFilename: checksumsFile},
			})
			if err != nil {
				return fmt.Errorf("failed to create updater: %w", err)
			}

			latest, found, err := updater.DetectLatest(cmd.Context(), selfupdate.ParseSlug(githubRepoSlug))
			if err != nil {
				return fmt.Errorf("failed to detect latest version: %w", err)
			}
			if !found {
				return fmt.Errorf("no release found for %s", githubRepoSlug)
			}

			out := cmd.OutOrStdout()
			if latest.LessOrEqual(current) {
				_, _ = fmt.Fprintf(out, "mcp-jira is up to date (%s)\n", current)
				return nil
			}

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("failed to locate executable: %w", err)
			}

			_, _ = fmt.Fprintf(out, "Updating mcp-jira from %s to %s...\n", current, latest.Version())
			if err := updater.UpdateTo(cmd.Context(), latest, exe); err != nil {
				return fmt.Errorf("failed to update binary: %w", err)
			}
			_, _ = fmt.Fprintf(out, "Successfully updated to %s\n", latest.Version())
			return nil
		},
	}
}

// isDevelopmentVersion reports whether v was not stamped by a release build.
func isDevelopmentVersion(v string) bool {
	switch strings.TrimSpace(v) {
	case "", "dev", "(devel)":
		return true
	}
	return false
}
