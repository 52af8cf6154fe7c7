// Package pubstatic turns a directory of markdown posts into a static blog.
// It provides the Builder that writes the site, a manifest of what was
// built, and an Echo preview server with an optional admin dashboard.
package pubstatic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/eringen/pubstatic/markdown"
	"github.com/eringen/pubstatic/posts"
)

// App is the preview server. It serves the same pages the Builder writes,
// straight from the posts directory, plus the admin dashboard.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Repo    *posts.Repository
	Cache   *SummaryCache
	Builder *Builder
	Store   *Store

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	logger       zerolog.Logger
	ownsStore    bool
	ready        bool
}

// NewRepository returns a posts repository over cfg.PostsDir that renders
// bodies with the default markdown renderer.
func NewRepository(cfg SiteConfig, logger zerolog.Logger) *posts.Repository {
	cfg.setDefaults()
	return posts.NewRepository(cfg.PostsDir, markdown.New(), posts.WithLogger(logger))
}

// New creates a preview App for repo with the given configuration.
func New(cfg SiteConfig, repo *posts.Repository, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Repo:   repo,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Setup opens the manifest when the admin dashboard needs one, then installs
// middleware and routes. Start calls it; tests call it before ServeHTTP.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}

	a.Cache = NewSummaryCache(a.Repo, a.Config.SummaryCacheTTL)

	if a.Config.AdminEnabled() {
		if a.Builder == nil {
			store, err := NewStore(a.Config.DatabasePath)
			if err != nil {
				return fmt.Errorf("pubstatic: init store: %w", err)
			}
			a.Store = store
			a.ownsStore = true
			a.Builder = NewBuilder(a.Config, a.Repo, store, a.logger)
		} else {
			a.Store = a.Builder.store
		}
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the App up and serves until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", a.Config.Addr).Bool("admin", a.Config.AdminEnabled()).Msg("preview server listening")
		errCh <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("pubstatic: shutdown: %w", err)
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/public/style.css", a.handleStyle)
	e.Static("/public", a.Config.StaticDir)
	e.GET("/robots.txt", a.handleRobots)

	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/posts/:id/", a.handlePost)

	if a.Config.AdminEnabled() {
		admin := e.Group("/admin", a.adminMiddleware()...)
		admin.GET("/", a.handleAdmin)
		admin.POST("/login/", a.handleAdminLogin)
		admin.POST("/logout/", handleAdminLogout)
		admin.POST("/build/", a.handleAdminBuild)
	}
}

// InvalidateCache drops the cached listing; wire it to a Watcher.
func (a *App) InvalidateCache(context.Context) {
	if a.Cache != nil {
		a.Cache.Invalidate()
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.ownsStore && a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
