package main

import (
	"os"

	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/root"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective configuration",
	Long: `Prints the effective configuration.

Settings come from the built-in defaults, then deployctl.toml in the project
directory, then DEPLOYCTL_* environment variables, e.g. DEPLOYCTL_IMAGE__NAME.`,
	Args: cobra.NoArgs,

	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := deployer(cmd).Config.TOML()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

func init() {
	root.Cmd.AddCommand(configCmd)
}
