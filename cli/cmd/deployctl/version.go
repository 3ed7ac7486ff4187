package main

import (
	"fmt"
	"runtime"

	"github.com/logrusorgru/aurora/v3"
	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/root"
	"coopins.dev/deployctl/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Reports the version of deployctl",
	Args:  cobra.NoArgs,

	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		b := version.Current()
		fmt.Println("deployctl version", b.Version, runtime.GOOS+"/"+runtime.GOARCH)
		if b.GoVersion != "" {
			fmt.Println("built with", b.GoVersion)
		}
		if b.Channel == version.DevBuild {
			fmt.Println(aurora.Yellow("This is a development build."))
		}
	},
}

func init() {
	root.Cmd.AddCommand(versionCmd)
}
