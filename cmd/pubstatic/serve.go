package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubstatic"
)

func newServeCmd(c *cli) *cobra.Command {
	var watch, build bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Preview the site from the posts directory",
		Long: `serve renders pages straight from the posts directory on every request.
With --watch the listing cache is dropped whenever a post changes; add
--build to also regenerate the output directory.`,
		Args: cobra.NoArgs,
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
			if build {
				if _, err := builder.Build(ctx); err != nil {
					return err
				}
			}

			app := pubstatic.New(c.cfg, repo,
				pubstatic.WithLogger(c.logger),
				pubstatic.WithBuilder(builder),
			)
			defer app.Close()
			if err := app.Setup(); err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return app.Start(gctx) })
			if watch {
				w := pubstatic.NewWatcher(c.logger, repo.Dir(), c.cfg.StaticDir)
				w.OnChange(app.InvalidateCache)
				if build {
					w.OnChange(func(ctx context.Context) { _, _ = builder.Build(ctx) })
				}
				g.Go(func() error { return w.Run(gctx) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "drop cached listings when files change")
	cmd.Flags().BoolVar(&build, "build", false, "build the output directory before serving and on changes")
	return cmd
}
