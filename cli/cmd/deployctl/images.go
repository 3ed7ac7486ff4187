package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coopins.dev/deployctl/cli/cmd/deployctl/cmdutil"
	"coopins.dev/deployctl/cli/cmd/deployctl/root"
)

var imagesOutput = cmdutil.Oneof{
	Value:   "text",
	Allowed: []string{"text", "json"},
}

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Lists the local images belonging to the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		refs, err := deployer(cmd).ProjectImages(cmd.Context())
		if err != nil {
			return err
		}
		if imagesOutput.Value == "json" {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if refs == nil {
				refs = []string{}
			}
			return enc.Encode(refs)
		}
		for _, ref := range refs {
			fmt.Println(ref)
		}
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify [tag...]",
	Short: "Checks that tags of the image exist in its registry",
	Long: `Checks that tags of the image exist in its registry.

Without arguments it checks latest and the tag of the current commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := deployer(cmd).Verify(cmd.Context(), args...)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, r := range results {
			_, _ = fmt.Fprintf(w, "%s\t%s\n", r.Ref, r.Digest)
		}
		_ = w.Flush()
		return err
	},
}

func init() {
	imagesOutput.AddFlag(imagesCmd)
	root.Cmd.AddCommand(imagesCmd, verifyCmd)
}
