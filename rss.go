package pubstatic

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/eringen/pubstatic/posts"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate,omitempty"`
	GUID    string `xml:"guid"`
}

// WriteRSS encodes an RSS 2.0 feed of summaries to w. Dates that do not
// parse as YYYY-MM-DD leave pubDate out.
func WriteRSS(w io.Writer, cfg SiteConfig, summaries []posts.Summary) error {
	items := make([]rssItem, 0, len(summaries))
	for _, s := range summaries {
		pubDate := ""
		if t, err := time.Parse("2006-01-02", s.Date); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		postURL := BuildURL(cfg.URL, "posts", s.ID)
		items = append(items, rssItem{
			Title:   s.Title,
			Link:    postURL,
			PubDate: pubDate,
			GUID:    postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       cfg.Name,
			Link:        BuildURL(cfg.URL),
			Description: cfg.Description,
			Items:       items,
		},
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("pubstatic: write rss: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(feed); err != nil {
		return fmt.Errorf("pubstatic: encode rss: %w", err)
	}
	return nil
}
