package cmd

import (
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Initialize the cache for this repository and print its size",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Prefix = " "
		s.Suffix = " initializing cache"
		s.Start()
		r := ctl.Initialize(workdir(), cfg.MirrorsDir(), nil)
		s.Stop()

		if !r.Success {
			return fmt.Errorf("initialize: %s", r.Err.Error())
		}

		stats := ctl.GetStats()
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"Metric", "Value"})
		table.SetBorder(false)
		table.SetColumnSeparator("")
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		enabled := "false"
		if stats.Enabled {
			enabled = color.GreenString("true")
		}
		table.Append([]string{"cached posts", fmt.Sprintf("%d", stats.Size)})
		table.Append([]string{"max size", fmt.Sprintf("%d", stats.MaxSize)})
		table.Append([]string{"enabled", enabled})

		ranges := ctl.GetCachedRanges()
		table.Append([]string{"covered dates", fmt.Sprintf("%d", len(ranges))})
		table.Render()
		return nil
	},
}

func workdir() string {
	if cfg.Workdir != "" {
		return cfg.Workdir
	}
	return "."
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
