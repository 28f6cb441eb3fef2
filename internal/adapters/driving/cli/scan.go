package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/report"
	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gitrecon-cli/internal/connectors/github"
	"github.com/custodia-labs/gitrecon-cli/internal/connectors/gitlab"
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitrecon-cli/internal/core/services"
)

var scanCmd = &cobra.Command{
	Use:   "scan <account>",
	Short: "Scan an account for leaked emails and public metadata",
	Long: `Scans a user or organization on GitHub or GitLab: profile,
repositories, commit history, SSH keys and organization membership.
Commit author emails attributed to the account are collected into an
identity report.

Progress is checkpointed throughout; rerun the command or use
'gitrecon status' after an interruption.

Examples:
  gitrecon scan torvalds
  gitrecon scan --platform gitlab gitlab-org --org
  gitrecon scan octocat --include-forks --output all
  gitrecon scan acme --org --cap 25 --token ghp_xxx`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var scanFlags struct {
	platform     string
	org          bool
	token        string
	delayMS      int
	includeForks bool
	sampleCap    int
	output       string
	outputDir    string
}

func init() {
	scanCmd.Flags().StringVarP(&scanFlags.platform, "platform", "p", "github", "platform to scan: github or gitlab")
	scanCmd.Flags().BoolVar(&scanFlags.org, "org", false, "treat the account as an organization (GitLab: group)")
	scanCmd.Flags().StringVarP(&scanFlags.token, "token", "t", "", "API token (falls back to the configured one)")
	scanCmd.Flags().IntVar(&scanFlags.delayMS, "delay", 0, "base delay between requests in milliseconds")
	scanCmd.Flags().BoolVar(&scanFlags.includeForks, "include-forks", false, "also scan forked repositories")
	scanCmd.Flags().IntVar(&scanFlags.sampleCap, "cap", 0, "max repositories for organization and GitLab scans (default 10)")
	scanCmd.Flags().StringVarP(&scanFlags.output, "output", "o", "", "report format: json, html or all")
	scanCmd.Flags().StringVar(&scanFlags.outputDir, "output-dir", "", "directory for report files (default ./gitrecon-results)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	platform, err := domain.ParsePlatform(scanFlags.platform)
	if err != nil {
		return err
	}
	format, err := domain.ParseReportFormat(scanFlags.output)
	if err != nil {
		return fmt.Errorf("%w: output format %q", domain.ErrInvalidInput, scanFlags.output)
	}

	kind := domain.TargetUser
	if scanFlags.org {
		kind = domain.TargetOrganization
	}
	target := domain.Target{Platform: platform, Kind: kind, Identifier: args[0]}
	if err := target.Validate(); err != nil {
		return err
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	outputDir := scanFlags.outputDir
	if outputDir == "" {
		outputDir = cfg.GetString(file.KeyOutputDir)
	}
	store, err := sqlite.NewStore("", report.NewWriter(outputDir))
	if err != nil {
		return fmt.Errorf("opening checkpoint store: %w", err)
	}
	defer store.Close()

	delayMS := scanFlags.delayMS
	if delayMS == 0 {
		delayMS = cfg.GetInt(file.KeyBaseDelayMS)
	}
	baseDelay := time.Duration(delayMS) * time.Millisecond
	tracker := services.NewRateLimitTracker(baseDelay)

	connector, err := buildConnector(platform, resolveToken(cfg, platform), tracker)
	if err != nil {
		return err
	}

	opts := domain.ScanOptions{
		IncludeForks: scanFlags.includeForks,
		SampleCap:    scanFlags.sampleCap,
		BaseDelay:    baseDelay,
		Format:       format,
	}

	// Ctrl-C flushes a final checkpoint instead of dropping the scan.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scanner := services.NewScanner(connector, tracker, store,
		services.WithProgress(func(p driving.ScanProgress) {
			line := fmt.Sprintf("Scanning repository %d/%d: %s", p.Index, p.Total, p.Repository)
			if p.NewEmails > 0 {
				line += successStyle.Render(fmt.Sprintf("  +%d emails", p.NewEmails))
			}
			cmd.Println(line)
		}))

	cmd.Printf("Running %s reconnaissance on %s %q\n", platform, kind, target.Identifier)

	state, err := scanner.Scan(ctx, target, opts)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%s %q not found on %s", kind, target.Identifier, platform)
	case errors.Is(err, domain.ErrScanInterrupted):
		cmd.Println(warnStyle.Render("Scan interrupted - partial results saved"))
	case err != nil:
		return err
	}

	renderScanState(cmd, state)
	return nil
}

// resolveToken prefers the --token flag over the configured token.
func resolveToken(cfg driven.ConfigStore, platform domain.Platform) string {
	if scanFlags.token != "" {
		return scanFlags.token
	}
	if platform == domain.PlatformGitLab {
		return cfg.GetString(file.KeyGitLabToken)
	}
	return cfg.GetString(file.KeyGitHubToken)
}

func buildConnector(platform domain.Platform, token string, tracker *services.RateLimitTracker) (driven.PlatformConnector, error) {
	if platform == domain.PlatformGitLab {
		return gitlab.New(gitlab.NewClient(token, tracker)), nil
	}
	client, err := github.NewClient(token, tracker)
	if err != nil {
		return nil, err
	}
	return github.New(client), nil
}
