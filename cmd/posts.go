package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/cachectl"
)

var (
	flagScope  string
	flagSortBy string
	flagLimit  int
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "List cached posts for a scope",
	Long: `Prints posts matching a getCachedPosts scope: all, timeline,
repository:my, repository:<url>[/list:<id>], list:<id>, post:<id>,
byId:<a,b,c>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if init := ctl.Initialize(workdir(), cfg.MirrorsDir(), nil); !init.Success {
			return fmt.Errorf("initialize: %s", init.Err.Error())
		}

		filter := cachectl.Filter{SortBy: cachectl.SortBy(flagSortBy), Limit: flagLimit}
		res := ctl.GetCachedPosts(workdir(), flagScope, filter, cachectl.QueryContext{})
		if !res.Success {
			return fmt.Errorf("getCachedPosts: %s", res.Err.Error())
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"", "Type", "Author", "When", "Content", "Score"})
		table.SetBorder(false)
		table.SetColumnSeparator("")
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)

		for i, p := range res.Data.Posts {
			content := p.CleanContent
			if len(content) > 60 {
				content = content[:57] + "..."
			}
			table.Append([]string{
				fmt.Sprintf("[%d]", i),
				color.CyanString(string(p.Type)),
				p.Author.Name,
				humanize.Time(p.Timestamp),
				content,
				fmt.Sprintf("%d", p.RankScore()),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	postsCmd.Flags().StringVar(&flagScope, "scope", "all", "getCachedPosts scope string")
	postsCmd.Flags().StringVar(&flagSortBy, "sort", "latest", "sort order: latest, oldest, top")
	postsCmd.Flags().IntVar(&flagLimit, "limit", 0, "maximum number of posts to print (0 = unbounded)")
	rootCmd.AddCommand(postsCmd)
}
