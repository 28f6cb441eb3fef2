package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
)

// renderScanState prints the post-scan summary: profile, secondary
// surfaces and the leaked email table.
func renderScanState(cmd *cobra.Command, state *domain.ScanState) {
	cmd.Println()
	if p := state.Profile; p != nil {
		cmd.Println(titleStyle.Render(p.Login) + mutedStyle.Render(" ("+p.DisplayName()+")"))
		for _, line := range profileLines(p) {
			cmd.Println("  " + line)
		}
	}

	if len(state.Organizations) > 0 {
		cmd.Printf("Organizations: %s\n", strings.Join(state.Organizations, ", "))
	}
	if len(state.Members) > 0 {
		cmd.Printf("Members: %d\n", len(state.Members))
	}
	if len(state.Keys) > 0 {
		cmd.Printf("Public SSH keys: %d\n", len(state.Keys))
	}
	cmd.Printf("Repositories scanned: %d/%d\n", state.RepositoriesScanned, len(state.Repositories))

	if state.Interrupted {
		cmd.Println(warnStyle.Render("Progress: " + state.Progress))
	}
	if state.LastError != nil {
		cmd.Println(warnStyle.Render("Last error: " + state.LastError.Repository + ": " + state.LastError.Message))
	}

	if len(state.EmailDetails) == 0 {
		cmd.Println(mutedStyle.Render("No leaked emails found"))
		return
	}

	cmd.Println(successStyle.Render("\nLeaked emails:"))
	cmd.Println(emailTable(state.EmailDetails))
}

func profileLines(p *domain.Profile) []string {
	pairs := []struct{ label, value string }{
		{"Email", p.Email},
		{"Location", p.Location},
		{"Company", p.Company},
		{"Organization", p.Organization},
		{"Job title", p.JobTitle},
		{"Blog", p.Blog},
		{"Website", p.WebURL},
		{"Twitter", p.Twitter},
		{"Status", p.Status},
		{"Created", p.CreatedAt},
	}
	var lines []string
	for _, pair := range pairs {
		if pair.value != "" {
			lines = append(lines, mutedStyle.Render(pair.label+": ")+pair.value)
		}
	}
	return lines
}

// emailTable renders the identity records as a bordered table.
func emailTable(records []domain.EmailRecord) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Email", "Names", "Sources", "Username"})
	for _, rec := range records {
		tbl.AppendRow(table.Row{
			rec.Email,
			strings.Join(rec.Names, ", "),
			strings.Join(rec.Sources, ", "),
			rec.PlatformUsername,
		})
	}
	return tbl.Render()
}
