package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/cmdutil"
	"coopins.dev/deployctl/cli/cmd/deployctl/root"
	"coopins.dev/deployctl/internal/deploy"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !cmdutil.ColorEnabled(),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.Cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cmdutil.Fatal(err)
	}
}

// deployer returns the deployer for the project selected by the global flags.
func deployer(cmd *cobra.Command) *deploy.Deployer {
	d, err := cmdutil.Deployer(cmd.Context(), root.Dir, root.ConfigFile)
	if err != nil {
		cmdutil.Fatal(err)
	}
	return d
}
