package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/root"
	"coopins.dev/deployctl/internal/deploy"
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage the git hook that publishes every commit",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Installs the post-commit hook into the repository's hooks directory",
	Args:  cobra.NoArgs,

	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := deployer(cmd).InstallHook(cmd.Context())
		if err != nil {
			return err
		}
		if res.Changed {
			fmt.Println("Installed hook at", res.Path)
		} else {
			fmt.Println("Hook is already up to date at", res.Path)
		}
		return nil
	},
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Reports whether the post-commit hook is installed and up to date",
	Args:  cobra.NoArgs,

	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := deployer(cmd).Hook(cmd.Context()).Status()
		if err != nil {
			return err
		}
		switch {
		case !st.Installed:
			fmt.Println("not installed:", st.Path)
		case !st.Executable:
			fmt.Println("installed but not executable:", st.Path)
		case !st.UpToDate:
			fmt.Println("installed but differs from its source:", st.Path)
		default:
			fmt.Println("installed:", st.Path)
		}
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall [--force]",
	Short: "Removes the post-commit hook",
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		inst := deployer(cmd).Hook(cmd.Context())
		removed, err := inst.Uninstall(force)
		if err != nil {
			return err
		}
		if removed {
			fmt.Println("Removed", inst.Path())
		} else {
			fmt.Println("No hook installed at", inst.Path())
		}
		return nil
	},
}

var hookPostCommitCmd = &cobra.Command{
	Use:   "post-commit",
	Short: "Builds and pushes the image for the new commit (run by the git hook)",
	Args:  cobra.NoArgs,

	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := deployer(cmd)
		_, err := d.Release(cmd.Context(), deploy.ReleaseOptions{})
		return err
	},
}

func init() {
	hookUninstallCmd.Flags().Bool("force", false, "remove the hook even if it was modified")

	hookCmd.AddCommand(hookInstallCmd, hookStatusCmd, hookUninstallCmd, hookPostCommitCmd)
	root.Cmd.AddCommand(hookCmd)
}
