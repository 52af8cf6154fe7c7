package pubstatic

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/eringen/pubstatic/posts"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// WriteSitemap encodes a sitemap with the home page and every listed post.
func WriteSitemap(w io.Writer, cfg SiteConfig, summaries []posts.Summary) error {
	urls := []sitemapURL{
		{Loc: BuildURL(cfg.URL)},
	}
	for _, s := range summaries {
		u := sitemapURL{Loc: BuildURL(cfg.URL, "posts", s.ID)}
		if _, err := time.Parse("2006-01-02", s.Date); err == nil {
			u.LastMod = s.Date
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("pubstatic: write sitemap: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(sitemap); err != nil {
		return fmt.Errorf("pubstatic: encode sitemap: %w", err)
	}
	return nil
}
