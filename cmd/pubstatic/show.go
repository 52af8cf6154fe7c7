package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/eringen/pubstatic"
)

func newShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a rendered post as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := pubstatic.NewRepository(c.cfg, c.logger)
			post, err := repo.PostData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(post)
		},
	}
}
