package views

// Site holds site-wide settings. Every page component receives it so nothing
// is hardcoded in templates.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// AdminEntry is one row of the admin dashboard: a post file and what the
// last build recorded for it.
type AdminEntry struct {
	ID      string
	Title   string
	Date    string
	Listed  bool // appears in the summary listing
	Built   bool
	BuiltAt string
	Path    string
}

// AdminBuild is a past build shown on the dashboard.
type AdminBuild struct {
	ID         int64
	StartedAt  string
	FinishedAt string
	Pages      int
	Status     string
	Error      string
}

// AdminData is everything the dashboard renders.
type AdminData struct {
	Entries   []AdminEntry
	Builds    []AdminBuild
	Message   string
	CSRFToken string
}
