package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/pubstatic"
)

func newListCmd(c *cli) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts newest first, or every post id with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := pubstatic.NewRepository(c.cfg, c.logger)
			out := cmd.OutOrStdout()

			if all {
				paths, err := repo.AllPostIDs()
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(out, p.Params.ID)
				}
				return nil
			}

			summaries, err := repo.SortedPostsData()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tID\tTITLE")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Date, s.ID, s.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "print every post id, including unlisted ones")
	return cmd
}
