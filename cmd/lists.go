package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gitsocial-org/gitsocial-sub002/collab"
	"github.com/gitsocial-org/gitsocial-sub002/config"
	"github.com/gitsocial-org/gitsocial-sub002/protocol"
)

var listsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Manage the repositories tracked by each reading list",
}

var listsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every list and its tracked repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := config.NewListStore(cfg.ListsFile())
		lists, err := store.GetLists(workdir())
		if err != nil {
			return err
		}
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"List", "Repositories"})
		table.SetBorder(false)
		for _, l := range lists {
			for i, r := range l.Repositories {
				id := l.ID
				if i > 0 {
					id = ""
				}
				table.Append([]string{id, r})
			}
			if len(l.Repositories) == 0 {
				table.Append([]string{l.ID, ""})
			}
		}
		table.Render()
		return nil
	},
}

var listsAddCmd = &cobra.Command{
	Use:   "add <listId> <repositoryUrl>",
	Short: "Add a repository to a list, creating the list if needed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		listID, url := args[0], args[1]
		if !protocol.ValidateURL(url) {
			return fmt.Errorf("lists: invalid repository url %q", url)
		}
		url = protocol.NormalizeURL(url)

		store := config.NewListStore(cfg.ListsFile())
		lists, err := store.GetLists(workdir())
		if err != nil {
			return err
		}

		found := false
		for i := range lists {
			if lists[i].ID != listID {
				continue
			}
			found = true
			for _, r := range lists[i].Repositories {
				if r == url {
					fmt.Fprintln(cmd.OutOrStdout(), "already tracked")
					return nil
				}
			}
			lists[i].Repositories = append(lists[i].Repositories, url)
		}
		if !found {
			lists = append(lists, collab.List{ID: listID, Repositories: []string{url}})
		}

		if err := store.Save(workdir(), lists); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added %s to list %q\n", url, listID)
		return nil
	},
}

func init() {
	listsCmd.AddCommand(listsShowCmd, listsAddCmd)
	rootCmd.AddCommand(listsCmd)
}
