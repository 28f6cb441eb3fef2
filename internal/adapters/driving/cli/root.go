// Package cli implements the gitrecon command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitrecon-cli/internal/logger"
)

var version = "dev"

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "gitrecon",
	Short: "OSINT reconnaissance for GitHub and GitLab accounts",
	Long: `gitrecon enumerates the public footprint of a GitHub or GitLab
account: profile metadata, repositories, commit author emails, SSH keys
and organization membership.

Scans checkpoint their progress continuously, so an interrupted run
(rate limit, Ctrl-C) never loses what it already found. Inspect saved
scans with 'gitrecon status'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"print per-request progress to stderr")
}

// Execute runs the CLI with the given build version.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}
