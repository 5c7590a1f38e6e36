package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atlasgate/atlasgate/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	cmd.AddCommand(newConfigInitCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter atlasgate.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configFilePath()
			if err := config.WriteTemplate(path); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			fmt.Println("Next: set the admin secret with: atlasgate admin token")
			return nil
		},
	}

	return cmd
}
