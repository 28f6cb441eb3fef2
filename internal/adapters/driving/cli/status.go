package cli

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/report"
	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status [account]",
	Short: "Inspect saved scan checkpoints",
	Long: `Without arguments, lists every saved scan with its progress.
With an account name, shows the full saved result for that scan,
including partial results of an interrupted run.

Examples:
  gitrecon status
  gitrecon status octocat
  gitrecon status --platform gitlab gitlab-org`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

var statusPlatform string

func init() {
	statusCmd.Flags().StringVarP(&statusPlatform, "platform", "p", "github", "platform of the account: github or gitlab")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := sqlite.NewStore("", report.NewWriter(""))
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()

	if len(args) == 1 {
		platform, err := domain.ParsePlatform(statusPlatform)
		if err != nil {
			return err
		}
		state, err := store.Load(ctx, domain.ScanKey{Platform: platform, Target: args[0]})
		if err != nil {
			return err
		}
		renderScanState(cmd, state)
		return nil
	}

	keys, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		cmd.Println(mutedStyle.Render("No saved scans"))
		return nil
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Platform", "Target", "Progress", "Emails", "Updated"})
	for _, key := range keys {
		state, err := store.Load(ctx, key)
		if err != nil {
			continue
		}
		progress := state.Progress
		if state.Interrupted {
			progress = warnStyle.Render(progress + " (interrupted)")
		}
		tbl.AppendRow(table.Row{
			key.Platform,
			key.Target,
			progress,
			len(state.LeakedEmails),
			state.LastUpdated.Local().Format("2006-01-02 15:04"),
		})
	}
	cmd.Println(tbl.Render())
	return nil
}
