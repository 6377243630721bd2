package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/gitmsg"
)

var gitmsgCmd = &cobra.Command{
	Use:   "gitmsg",
	Short: "Parse a commit message (read from stdin) into its GitMsg header and references",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}

		res := gitmsg.Parse(string(body), nil)
		out := cmd.OutOrStdout()
		if res == nil {
			fmt.Fprintln(out, "no GitMsg header found")
			return nil
		}

		fmt.Fprintf(out, "ext:     %s\n", res.Header.Ext)
		fmt.Fprintf(out, "version: %s / ext-v %s\n", res.Header.Version, res.Header.ExtVersion)
		for _, k := range res.Header.Fields.Keys() {
			v, _ := res.Header.Fields.Get(k)
			fmt.Fprintf(out, "  %s = %q\n", k, v)
		}
		fmt.Fprintf(out, "references: %d\n", len(res.References))
		for _, r := range res.References {
			fmt.Fprintf(out, "  ref=%s author=%s\n", r.Ref, r.Author)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gitmsgCmd)
}
