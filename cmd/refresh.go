package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/cachectl"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Purge and reload the cache, in whole or by scope",
	RunE: func(cmd *cobra.Command, args []string) error {
		scope := cachectl.RefreshScope{Kind: cachectl.RefreshAll}
		r := ctl.Refresh(scope, workdir(), cfg.MirrorsDir())
		if !r.Success {
			return fmt.Errorf("refresh: %s", r.Err.Error())
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache refreshed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
