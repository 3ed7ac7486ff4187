package main

import (
	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/cmdutil"
	"coopins.dev/deployctl/cli/cmd/deployctl/root"
	"coopins.dev/deployctl/internal/deploy"
)

var releaseOpts deploy.ReleaseOptions

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the image tagged latest and sha-<commit>",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := deployer(cmd)
		cmdutil.WarnUncommitted(cmd.Context(), d.Root)
		_, err := d.Build(cmd.Context(), releaseOpts)
		return err
	},
}

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Pushes the latest and sha-<commit> tags",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := deployer(cmd).Push(cmd.Context(), releaseOpts)
		return err
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Builds and pushes the image for the current commit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := deployer(cmd)
		cmdutil.WarnUncommitted(cmd.Context(), d.Root)
		_, err := d.Release(cmd.Context(), releaseOpts)
		return err
	},
}

var rebuildCmd = &cobra.Command{
	Use:     "rebuild",
	Aliases: []string{"force-rebuild"},
	Short:   "Recreates the compose project from scratch, removing its volumes, images and build cache",
	Long: `Recreates the compose project from scratch.

The containers are stopped and their volumes removed, which deletes the
application database. The project's images and the build cache are removed
and the images rebuilt without cache before the containers are started again.`,
	Args: cobra.NoArgs,

	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return deployer(cmd).ForceRebuild(cmd.Context())
	},
}

func init() {
	for _, c := range []*cobra.Command{buildCmd, pushCmd, releaseCmd} {
		c.Flags().BoolVar(&releaseOpts.RequireRevision, "require-revision", false, "fail instead of tagging sha-manual when the git revision is unknown")
	}
	for _, c := range []*cobra.Command{buildCmd, releaseCmd} {
		c.Flags().BoolVar(&releaseOpts.NoCache, "no-cache", false, "do not use the build cache")
	}
	for _, c := range []*cobra.Command{pushCmd, releaseCmd} {
		c.Flags().BoolVar(&releaseOpts.Verify, "verify", false, "check the pushed tags in the registry")
	}
	root.Cmd.AddCommand(buildCmd, pushCmd, releaseCmd, rebuildCmd)
}
