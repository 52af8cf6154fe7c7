package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/pubstatic"
)

func newBuildCmd(c *cli) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the static site into the output directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := pubstatic.NewStore(c.cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer store.Close()

			repo := pubstatic.NewRepository(c.cfg, c.logger)
			builder := pubstatic.NewBuilder(c.cfg, repo, store, c.logger)
			res, err := builder.Build(ctx)
			if err != nil && !watch {
				return err
			}
			if err == nil {
				cmd.Printf("Built %d pages into %s (%d written, %d unchanged, %d removed)\n",
					res.Pages, c.cfg.OutputDir, res.Written, res.Skipped, res.Removed)
			}
			if !watch {
				return nil
			}

			w := pubstatic.NewWatcher(c.logger, repo.Dir(), c.cfg.StaticDir)
			w.OnChange(func(ctx context.Context) {
				// Failures are logged by the builder; keep watching.
				_, _ = builder.Build(ctx)
			})
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "rebuild when posts or static files change")
	return cmd
}
