package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

var authCmd = &cobra.Command{
	Use:   "auth <platform>",
	Short: "Store an API token for a platform",
	Long: `Stores a personal access token for GitHub or GitLab in the
configuration file. Tokens raise the API rate limit substantially
(GitHub: 60 to 5000 requests per hour).

The token is read from a hidden terminal prompt unless --token is
given.

Examples:
  gitrecon auth github
  gitrecon auth gitlab --token glpat-xxx`,
	Args: cobra.ExactArgs(1),
	RunE: runAuth,
}

var authToken string

func init() {
	authCmd.Flags().StringVarP(&authToken, "token", "t", "", "token value (skips the prompt)")
	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	platform, err := domain.ParsePlatform(args[0])
	if err != nil {
		return err
	}

	token := authToken
	if token == "" {
		cmd.Printf("Enter %s token: ", platform)
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		cmd.Println()
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}
	if token == "" {
		return fmt.Errorf("%w: empty token", domain.ErrInvalidInput)
	}

	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	key := file.KeyGitHubToken
	if platform == domain.PlatformGitLab {
		key = file.KeyGitLabToken
	}
	if err := cfg.Set(key, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	cmd.Printf("%s token saved to %s\n", platform, cfg.Path())
	return nil
}
