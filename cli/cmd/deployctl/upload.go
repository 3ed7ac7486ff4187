package main

import (
	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/root"
	"coopins.dev/deployctl/internal/deploy"
)

var uploadOpts deploy.UploadOptions

var uploadCmd = &cobra.Command{
	Use:   "upload <dockerhub-username> [--skip-build] [--version=VERSION]",
	Short: "Publishes the image to Docker Hub with a version tag and latest",
	Long: `Publishes the image to Docker Hub as <dockerhub-username>/<repository>.

The image is tagged with a version, a timestamp unless --version is given,
and with latest. If DOCKERHUB_TOKEN is set it is used to log in; otherwise
stored credentials are used, or docker prompts for a password.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uploadOpts.Username = args[0]
		_, err := deployer(cmd).Upload(cmd.Context(), uploadOpts)
		return err
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadOpts.SkipBuild, "skip-build", false, "upload an existing local image instead of building")
	uploadCmd.Flags().StringVar(&uploadOpts.Version, "version", "", "version tag (defaults to the current time)")
	uploadCmd.Flags().BoolVar(&uploadOpts.Verify, "verify", false, "check the pushed tags on Docker Hub")
	root.Cmd.AddCommand(uploadCmd)
}
