package pubstatic

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/pubstatic/views"
)

const adminBuildHistory = 10

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, views.AdminLogin(a.Config.site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		a.loginLimiter.Reset(ip)
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.logger.Warn().Str("ip", ip).Msg("failed admin login")
	return RenderStatus(c, http.StatusUnauthorized, views.AdminLogin(a.Config.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// handleAdminBuild runs a full build and shows its outcome on the dashboard.
func (a *App) handleAdminBuild(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	res, err := a.Builder.Build(c.Request().Context())
	a.Cache.Invalidate()
	msg := fmt.Sprintf("Built %d pages (%d written, %d unchanged, %d removed) in %s.",
		res.Pages, res.Written, res.Skipped, res.Removed, res.Duration.Round(time.Millisecond))
	if err != nil {
		msg = "Build failed: " + err.Error()
	}
	return a.renderAdminDashboard(c, msg)
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	data, err := a.adminData()
	if err != nil {
		return err
	}
	data.Message = msg
	data.CSRFToken = CsrfToken(c)
	return Render(c, views.AdminDashboard(a.Config.site(), data))
}

// adminData lists every post file, including ones left out of the listing,
// joined with what the manifest knows about it.
func (a *App) adminData() (views.AdminData, error) {
	ids, err := a.Repo.ListIDs()
	if err != nil {
		return views.AdminData{}, err
	}
	summaries, err := a.Repo.SortedPostsData()
	if err != nil {
		// Posts that fail to parse still show up by id.
		a.logger.Warn().Err(err).Msg("admin: listing posts")
		summaries = nil
	}
	listed := make(map[string]views.AdminEntry, len(summaries))
	for _, s := range summaries {
		listed[s.ID] = views.AdminEntry{ID: s.ID, Title: s.Title, Date: s.Date, Listed: true}
	}

	entries := make([]views.AdminEntry, 0, len(ids))
	for _, id := range ids {
		entry, ok := listed[id]
		if !ok {
			entry = views.AdminEntry{ID: id}
		}
		page, err := a.Store.GetPage(id)
		switch {
		case err == nil:
			entry.Built = true
			entry.BuiltAt = page.BuiltAt.Format(time.RFC3339)
			entry.Path = page.Path
			if !ok {
				entry.Title, entry.Date = page.Title, page.Date
			}
		case !errors.Is(err, ErrNotFound):
			return views.AdminData{}, err
		}
		entries = append(entries, entry)
	}

	builds, err := a.Store.ListBuilds(adminBuildHistory)
	if err != nil {
		return views.AdminData{}, err
	}
	data := views.AdminData{Entries: entries}
	for _, b := range builds {
		data.Builds = append(data.Builds, views.AdminBuild{
			ID:         b.ID,
			StartedAt:  b.StartedAt.Format(time.RFC3339),
			FinishedAt: b.FinishedAt.Format(time.RFC3339),
			Pages:      b.Pages,
			Status:     b.Status,
			Error:      b.Error,
		})
	}
	return data, nil
}
