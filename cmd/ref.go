package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

var refCmd = &cobra.Command{
	Use:   "ref <reference>",
	Short: "Parse a GitMsg reference string and print its components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := protocol.ParseRef(args[0])
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "type:     %s\n", p.Type)
		if p.Type == protocol.RefUnknown {
			return nil
		}
		fmt.Fprintf(out, "value:    %s\n", p.Value)
		fmt.Fprintf(out, "absolute: %v\n", p.IsAbsolute())
		if p.IsAbsolute() {
			fmt.Fprintf(out, "repo:     %s\n", p.Repo)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refCmd)
}
