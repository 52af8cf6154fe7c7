package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/eringen/pubstatic/posts"
)

var testSite = Site{Name: "Test Blog", URL: "https://blog.example.com", Description: "Notes", Author: "Ada"}

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return buf.String()
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"2020-01-02", "January 2, 2020"},
		{"2021-12-31T10:00:00Z", "December 31, 2021"},
		{"2019-07-04 08:30:00", "July 4, 2019"},
		{"undefined", "undefined"},
		{"sometime", "sometime"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatDate(tt.input); got != tt.expected {
			t.Errorf("FormatDate(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestPostPath(t *testing.T) {
	if got := PostPath("hello-world"); got != "/posts/hello-world/" {
		t.Errorf("PostPath = %q", got)
	}
	if got := PostPath("a b"); got != "/posts/a%20b/" {
		t.Errorf("PostPath should escape: %q", got)
	}
}

func TestHomeListsPostsInOrder(t *testing.T) {
	got := renderString(t, Home(testSite, []posts.Summary{
		{ID: "b", Title: "Bee", Date: "2020-01-05"},
		{ID: "a", Title: "Ay", Date: "2020-01-02"},
	}))
	bi := strings.Index(got, `href="/posts/b/"`)
	ai := strings.Index(got, `href="/posts/a/"`)
	if bi < 0 || ai < 0 || bi > ai {
		t.Errorf("expected b before a in listing: %q", got)
	}
	if !strings.Contains(got, "January 5, 2020") {
		t.Errorf("listing should show formatted date: %q", got)
	}
	if !strings.Contains(got, "<title>Test Blog</title>") {
		t.Errorf("home title missing: %q", got)
	}
}

func TestHomeEmpty(t *testing.T) {
	got := renderString(t, Home(testSite, nil))
	if !strings.Contains(got, "No posts yet.") {
		t.Errorf("empty listing message missing: %q", got)
	}
}

func TestPostRendersHTMLBodyAndEscapesTitle(t *testing.T) {
	got := renderString(t, Post(testSite, posts.Post{
		Summary:     posts.Summary{ID: "x", Title: "Fish & <Chips>", Date: "2020-01-02"},
		ContentHTML: "<p>Hello <strong>there</strong></p>",
	}))
	if !strings.Contains(got, "<p>Hello <strong>there</strong></p>") {
		t.Errorf("post body should be written unescaped: %q", got)
	}
	if !strings.Contains(got, "Fish &amp; &lt;Chips&gt;") {
		t.Errorf("post title should be escaped: %q", got)
	}
	if !strings.Contains(got, "January 2, 2020") {
		t.Errorf("post date should be formatted: %q", got)
	}
	if !strings.Contains(got, `"@type":"BlogPosting"`) {
		t.Errorf("post should carry JSON-LD: %q", got)
	}
}

func TestPostUndefinedPlaceholders(t *testing.T) {
	got := renderString(t, Post(testSite, posts.Post{
		Summary: posts.Summary{ID: "c", Title: posts.Undefined, Date: posts.Undefined},
	}))
	if !strings.Contains(got, "<title>undefined</title>") {
		t.Errorf("undefined title should be rendered literally: %q", got)
	}
	if strings.Contains(got, "datePublished") {
		t.Errorf("JSON-LD should omit an unparseable date: %q", got)
	}
}

func TestAdminDashboard(t *testing.T) {
	got := renderString(t, AdminDashboard(testSite, AdminData{
		Entries: []AdminEntry{
			{ID: "a", Title: "A", Date: "2020-01-01", Listed: true, Built: true, BuiltAt: "2024-01-01T00:00:00Z"},
			{ID: "c", Title: "C", Date: "undefined"},
		},
		Builds:    []AdminBuild{{ID: 7, Status: "ok", Pages: 2}},
		Message:   "built",
		CSRFToken: "tok",
	}))
	for _, want := range []string{"hidden", "never", `value="tok"`, "2024-01-01T00:00:00Z", "<td>7</td>", "built"} {
		if !strings.Contains(got, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestWebsiteJsonLD(t *testing.T) {
	got := WebsiteJsonLD(testSite)
	if !strings.Contains(got, `"url":"https://blog.example.com"`) {
		t.Errorf("WebsiteJsonLD url: %s", got)
	}
	if !strings.Contains(got, `"name":"Ada"`) {
		t.Errorf("WebsiteJsonLD author: %s", got)
	}
}
