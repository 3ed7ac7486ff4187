package root

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	Verbosity int

	// Dir is the project directory. Defaults to the enclosing git work tree.
	Dir string

	// ConfigFile is an explicit configuration file.
	ConfigFile string
)

var Cmd = &cobra.Command{
	Use:           "deployctl",
	Short:         "deployctl builds, publishes and rebuilds the application's Docker images",
	SilenceErrors: true, // We'll handle displaying an error in our main func
	SilenceUsage:  true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if Verbosity == 1 {
			level = zerolog.DebugLevel
		} else if Verbosity >= 2 {
			level = zerolog.TraceLevel
		}
		log.Logger = log.Logger.Level(level)
	},
}

func init() {
	Cmd.PersistentFlags().CountVarP(&Verbosity, "verbose", "v", "verbose output")
	Cmd.PersistentFlags().StringVarP(&Dir, "dir", "C", "", "project directory (defaults to the enclosing git work tree)")
	Cmd.PersistentFlags().StringVar(&ConfigFile, "config", "", "configuration file (defaults to <project>/deployctl.toml)")
}
