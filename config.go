package pubstatic

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/eringen/pubstatic/views"
)

// SiteConfig holds all configuration for a pubstatic site.
type SiteConfig struct {
	Name        string // Site name (default "Blog")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	PostsDir  string // Markdown sources (default "posts")
	OutputDir string // Build output (default "dist")
	StaticDir string // User-owned static assets copied to /public (default "public")

	Addr         string // Preview listen address (default ":3000")
	DatabasePath string // Build manifest SQLite path (default "data/build.db")

	AdminPassword string // Enables the admin dashboard when set with SessionSecret
	SessionSecret string
	CookieSecure  bool // Set true for HTTPS

	SummaryCacheTTL time.Duration // Preview listing cache TTL; 0 disables caching
	MaxImageWidth   int           // Wider images are downscaled on build (default 1600)
	Workers         int           // Post pages rendered in parallel (default 4)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.PostsDir == "" {
		c.PostsDir = "posts"
	}
	if c.OutputDir == "" {
		c.OutputDir = "dist"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/build.db"
	}
	if c.MaxImageWidth <= 0 {
		c.MaxImageWidth = 1600
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
}

// AdminEnabled reports whether the admin routes should be mounted.
func (c SiteConfig) AdminEnabled() bool {
	return c.AdminPassword != "" && c.SessionSecret != ""
}

func (c SiteConfig) site() views.Site {
	return views.Site{Name: c.Name, URL: c.URL, Description: c.Description, Author: c.Author}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger sets the logger used by the server, builder and watcher.
func WithLogger(l zerolog.Logger) Option {
	return func(a *App) {
		a.logger = l
	}
}

// WithBuilder shares an existing Builder (and its manifest) with the server.
func WithBuilder(b *Builder) Option {
	return func(a *App) {
		a.Builder = b
	}
}
