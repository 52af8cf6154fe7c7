package pubstatic

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

func (a *App) handleHome(c echo.Context) error {
	summaries, err := a.Cache.Summaries()
	if err != nil {
		return err
	}
	return Render(c, views.Home(a.Config.site(), summaries))
}

// handlePost reads the post fresh on every request so edits show up without
// waiting for the listing cache.
func (a *App) handlePost(c echo.Context) error {
	id := c.Param("id")
	if c.Request().URL.RawPath != "" {
		var err error
		if id, err = url.PathUnescape(id); err != nil {
			return echo.ErrNotFound
		}
	}
	var params *posts.PathParams
	if id != "" {
		params = &posts.PathParams{ID: id}
	}
	post, err := a.Repo.PostProps(c.Request().Context(), params)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, posts.ErrInvalidID) {
			return echo.ErrNotFound
		}
		return err
	}
	return Render(c, views.Post(a.Config.site(), post))
}

func (a *App) handleSitemap(c echo.Context) error {
	summaries, err := a.Cache.Summaries()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteSitemap(c.Response(), a.Config, summaries)
}

func (a *App) handleFeed(c echo.Context) error {
	summaries, err := a.Cache.Summaries()
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return WriteRSS(c.Response(), a.Config, summaries)
}

// handleStyle prefers a style.css from the static directory over the
// embedded default.
func (a *App) handleStyle(c echo.Context) error {
	if p := filepath.Join(a.Config.StaticDir, "style.css"); fileExists(p) {
		return c.File(p)
	}
	css, err := fs.ReadFile(EmbeddedAssets, "embedded/style.css")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "text/css; charset=utf-8", css)
}

func (a *App) handleRobots(c echo.Context) error {
	if p := filepath.Join(a.Config.StaticDir, "robots.txt"); fileExists(p) {
		return c.File(p)
	}
	body := fmt.Sprintf("User-agent: *\nAllow: /\n\nSitemap: %s\n", strings.TrimSuffix(BuildURL(a.Config.URL), "/")+"/sitemap.xml")
	return c.String(http.StatusOK, body)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.Config.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.logger.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, views.ServerError(a.Config.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
