package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atlasgate/atlasgate/internal/config"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage the admin gate",
	}

	cmd.AddCommand(newAdminTokenCmd())

	return cmd
}

func newAdminTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Set the admin shared secret",
		Long: `Prompt for the admin token and store it in the config file.

The token guards key issuance and listing. Until it is set, all admin
endpoints are denied. The prompt does not echo, so the secret never appears
in shell history or process listings.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminToken()
		},
	}

	return cmd
}

func runAdminToken() error {
	fmt.Print("Admin token: ")
	tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	fmt.Print("Confirm token: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}

	token := string(tokenBytes)
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if token != string(confirmBytes) {
		return fmt.Errorf("tokens do not match")
	}

	path := configFilePath()
	if err := config.WriteAdminToken(path, token); err != nil {
		return err
	}

	fmt.Printf("Admin token written to %s\n", path)
	return nil
}
