// Package views holds the page components. Each component is a
// templ.Component backed by an embedded html/template file, so handlers and
// the static builder render pages the same way.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/pubstatic/markdown"
	"github.com/eringen/pubstatic/posts"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"formatDate": FormatDate,
	"postPath":   PostPath,
}).ParseFS(templateFS, "templates/*.html"))

type layoutData struct {
	Site   Site
	Meta   PageMeta
	JSONLD template.JS
}

// partial renders one named template with data.
func partial(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return templates.ExecuteTemplate(w, name, data)
	})
}

// Layout wraps children in the shared page shell.
func Layout(site Site, meta PageMeta, jsonLD string, children ...templ.Component) templ.Component {
	data := layoutData{Site: site, Meta: meta, JSONLD: template.JS(jsonLD)}
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := templates.ExecuteTemplate(w, "layout-open", data); err != nil {
			return err
		}
		for _, c := range children {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return templates.ExecuteTemplate(w, "layout-close", data)
	})
}

// Home lists post summaries, newest first.
func Home(site Site, summaries []posts.Summary) templ.Component {
	meta := PageMeta{
		Title:       site.Name,
		Description: site.Description,
		URL:         buildURL(site.URL),
		OGType:      "website",
	}
	return Layout(site, meta, WebsiteJsonLD(site), partial("home", struct {
		Site  Site
		Posts []posts.Summary
	}{site, summaries}))
}

// Post renders a single post: title, formatted date and the HTML body.
func Post(site Site, post posts.Post) templ.Component {
	meta := PageMeta{
		Title:  post.Title,
		URL:    buildURL(site.URL, "posts", post.ID),
		OGType: "article",
	}
	return Layout(site, meta, BlogPostingJsonLD(site, post.ID, post.Title, post.Date),
		partial("post-open", post),
		markdown.HTML(post.ContentHTML),
		partial("post-close", post),
	)
}

// NotFound is the 404 page.
func NotFound(site Site) templ.Component {
	meta := PageMeta{Title: "Not found · " + site.Name, OGType: "website"}
	return Layout(site, meta, "", partial("not-found", site))
}

// ServerError is the 500 page.
func ServerError(site Site) templ.Component {
	meta := PageMeta{Title: "Error · " + site.Name, OGType: "website"}
	return Layout(site, meta, "", partial("server-error", site))
}

// AdminLogin renders the admin password form.
func AdminLogin(site Site, showError bool, csrfToken string) templ.Component {
	meta := PageMeta{Title: "Admin · " + site.Name, OGType: "website"}
	return Layout(site, meta, "", partial("admin-login", struct {
		ShowError bool
		CSRFToken string
	}{showError, csrfToken}))
}

// AdminDashboard renders every post file with its listing and build state.
func AdminDashboard(site Site, data AdminData) templ.Component {
	meta := PageMeta{Title: "Admin · " + site.Name, OGType: "website"}
	return Layout(site, meta, "", partial("admin-dashboard", data))
}
