package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/cachectl"
	"github.com/gitsocial-org/gitsocial-sub002/post"
)

var threadSortBy string

var threadCmd = &cobra.Command{
	Use:   "thread <postId>",
	Short: "Reconstruct and print the thread anchored at a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if init := ctl.Initialize(workdir(), cfg.MirrorsDir(), nil); !init.Success {
			return fmt.Errorf("initialize: %s", init.Err.Error())
		}

		filter := cachectl.Filter{SortBy: cachectl.SortBy(threadSortBy)}
		res := ctl.GetCachedPosts(workdir(), "thread:"+args[0], filter, cachectl.QueryContext{})
		if !res.Success {
			return fmt.Errorf("thread: %s", res.Err.Error())
		}

		t := res.Data.Thread
		out := cmd.OutOrStdout()
		for _, p := range t.ParentPosts {
			printPost(out, p, "  ")
		}
		fmt.Fprintln(out, color.YellowString("-> "+t.Anchor.ID))
		printPost(out, t.Anchor, "  ")
		for _, p := range t.ChildPosts {
			printPost(out, p, "    ")
		}
		return nil
	},
}

func printPost(out io.Writer, p *post.Post, indent string) {
	fmt.Fprintf(out, "%s[%s] %s: %s\n", indent, p.Type, p.Author.Name, oneLine(p.CleanContent))
}

func oneLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + "..."
		}
	}
	return s
}

func init() {
	threadCmd.Flags().StringVar(&threadSortBy, "sort", "top", "child sort order: top, latest, oldest")
	rootCmd.AddCommand(threadCmd)
}
