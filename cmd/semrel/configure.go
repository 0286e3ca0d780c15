package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/semrel/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store release tokens in the OS keychain",
	Long: `Prompt for the tokens a release needs and store them securely.

Tokens go to the OS keychain when one is available, otherwise to
~/.config/semrel/credentials.yaml (mode 0600). Environment variables
(GH_TOKEN, CARGO_TOKEN, TRAVIS_API_TOKEN) always take precedence.
Press Enter to keep a stored token.`,
	Args: cobra.NoArgs,
	RunE: runConfigure,
}

func runConfigure(cmd *cobra.Command, args []string) error {
	cm := config.NewCredentialManager("", logger)
	if !cm.GetMode().AllowsInteractivePrompts() {
		return fmt.Errorf("configure is interactive and cannot run in %s mode; set the token environment variables instead", cm.GetMode())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "semrel configuration")
	fmt.Fprintln(out)

	for _, c := range []config.Credential{config.GitHubToken, config.RegistryToken, config.TravisToken} {
		current, err := cm.Get(c)
		if err != nil {
			return err
		}
		if current != "" {
			fmt.Fprintf(out, "%s: %s\n", c.Name, config.MaskToken(current))
		}

		secret, err := config.ReadSecret(os.Stdin, out, fmt.Sprintf("Enter %s: ", c.Name))
		if err != nil {
			return err
		}
		if secret == "" {
			continue
		}

		where, err := cm.Save(c, secret)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s to %s\n", c.Name, where)
	}
	return nil
}
