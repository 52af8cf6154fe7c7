package posts_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/pubstatic/markdown"
	"github.com/eringen/pubstatic/posts"
)

func writePosts(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func newRepo(t *testing.T, files map[string]string) *posts.Repository {
	t.Helper()
	return posts.NewRepository(writePosts(t, files), markdown.New())
}

func TestListIDs(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"first-post.md":  "hello",
		"second-post.md": "world",
		"notes.txt":      "kept as-is",
	})
	require.NoError(t, os.Mkdir(filepath.Join(repo.Dir(), "drafts"), 0o755))

	ids, err := repo.ListIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"first-post", "second-post", "notes.txt"}, ids)
}

func TestListIDsMissingDirectory(t *testing.T) {
	repo := posts.NewRepository(filepath.Join(t.TempDir(), "nope"), markdown.New())
	_, err := repo.ListIDs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestReadRaw(t *testing.T) {
	content := "---\ntitle: Hi\n---\nBody text\n"
	repo := newRepo(t, map[string]string{"hi.md": content})

	got, err := repo.ReadRaw("hi")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestReadRawMissing(t *testing.T) {
	repo := newRepo(t, nil)
	_, err := repo.ReadRaw("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestReadRawRejectsPaths(t *testing.T) {
	repo := newRepo(t, nil)
	for _, id := range []string{"", "../etc/passwd", `a\b`, "nested/post"} {
		_, err := repo.ReadRaw(id)
		assert.ErrorIs(t, err, posts.ErrInvalidID, "id %q", id)
	}
}

func TestDotNamedPost(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"..md": "---\ntitle: Dots\ndate: 2020-01-01\n---\nbody\n",
	})

	ids, err := repo.ListIDs()
	require.NoError(t, err)
	require.Equal(t, []string{"."}, ids)
	post, err := repo.PostData(context.Background(), ".")
	require.NoError(t, err)
	assert.Equal(t, "Dots", post.Title)
}

func TestParseFrontMatter(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		title     posts.Field
		date      posts.Field
		body      string
		extraKeys []string
	}{
		{
			name:  "title and date",
			raw:   "---\ntitle: \"A\"\ndate: \"2020-01-02\"\n---\nHello *world*\n",
			title: posts.Field{Value: "A", Present: true},
			date:  posts.Field{Value: "2020-01-02", Present: true},
			body:  "Hello *world*\n",
		},
		{
			name:  "unquoted date keeps literal text",
			raw:   "---\ntitle: B\ndate: 2021-03-04\n---\nbody",
			title: posts.Field{Value: "B", Present: true},
			date:  posts.Field{Value: "2021-03-04", Present: true},
			body:  "body",
		},
		{
			name:  "missing date",
			raw:   "---\ntitle: Only title\n---\ntext\n",
			title: posts.Field{Value: "Only title", Present: true},
			body:  "text\n",
		},
		{
			name:  "null title is present but empty",
			raw:   "---\ntitle:\ndate: 2020-01-01\n---\n",
			title: posts.Field{Present: true},
			date:  posts.Field{Value: "2020-01-01", Present: true},
			body:  "",
		},
		{
			name: "no front matter",
			raw:  "# Just markdown\n\nNo metadata here.\n",
			body: "# Just markdown\n\nNo metadata here.\n",
		},
		{
			name: "block must open on the first line",
			raw:  "\n---\ntitle: A\n---\nbody\n",
			body: "\n---\ntitle: A\n---\nbody\n",
		},
		{
			name: "empty block",
			raw:  "---\n---\nbody\n",
			body: "body\n",
		},
		{
			name:      "extra keys are kept",
			raw:       "---\ntitle: T\ntags: [go, web]\ndraft: true\n---\nx",
			title:     posts.Field{Value: "T", Present: true},
			body:      "x",
			extraKeys: []string{"draft", "tags"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := posts.ParseFrontMatter(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.title, p.Metadata.Title)
			assert.Equal(t, tt.date, p.Metadata.Date)
			assert.Equal(t, tt.body, p.Body)
			var keys []string
			for k := range p.Metadata.Extra {
				keys = append(keys, k)
			}
			assert.ElementsMatch(t, tt.extraKeys, keys)
		})
	}
}

func TestParseFrontMatterMalformed(t *testing.T) {
	tests := []string{
		"---\ntitle: [unclosed\n---\nbody",
		"---\n- just\n- a list\n---\nbody",
		"---\ntitle:\n  nested: map\n---\nbody",
		"---\ntitle: A\ntitle: B\n---\nx",
	}
	for _, raw := range tests {
		_, err := posts.ParseFrontMatter(raw)
		var fmErr *posts.FrontMatterError
		assert.True(t, errors.As(err, &fmErr), "ParseFrontMatter(%q) error = %v, want *FrontMatterError", raw, err)
	}
}

func TestReadThenParseRecoversBody(t *testing.T) {
	body := "First paragraph.\n\n## Section\n\n- one\n- two\n"
	repo := newRepo(t, map[string]string{
		"p.md": "---\ntitle: P\ndate: 2022-02-02\n---\n" + body,
	})

	raw, err := repo.ReadRaw("p")
	require.NoError(t, err)
	parsed, err := posts.ParseFrontMatter(raw)
	require.NoError(t, err)
	assert.Equal(t, body, parsed.Body)
	assert.Equal(t, "P", parsed.Metadata.Title.Value)
	assert.Equal(t, "2022-02-02", parsed.Metadata.Date.Value)
}

func TestSortedPostsData(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"a.md": "---\ntitle: \"A\"\ndate: \"2020-01-02\"\n---\nA body",
		"b.md": "---\ntitle: \"B\"\ndate: \"2020-01-05\"\n---\nB body",
	})

	got, err := repo.SortedPostsData()
	require.NoError(t, err)
	assert.Equal(t, []posts.Summary{
		{ID: "b", Title: "B", Date: "2020-01-05"},
		{ID: "a", Title: "A", Date: "2020-01-02"},
	}, got)
}

func TestSortedPostsDataExcludesIncomplete(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2020-01-02\n---\n",
		"c.md": "---\ntitle: C\n---\nno date",
		"d.md": "---\ndate: 2020-02-02\n---\nno title",
		"e.md": "plain markdown",
	})

	got, err := repo.SortedPostsData()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	paths, err := repo.AllPostIDs()
	require.NoError(t, err)
	var ids []string
	for _, p := range paths {
		ids = append(ids, p.Params.ID)
	}
	assert.ElementsMatch(t, []string{"a", "c", "d", "e"}, ids)
	assert.Contains(t, paths, posts.StaticPath{Params: &posts.PathParams{ID: "c"}})
}

func TestSortedPostsDataDescendingOrder(t *testing.T) {
	dates := []string{"2019-12-31", "2021-06-01", "2020-01-01", "2021-06-01", "2018-05-20", "2020-10-10"}
	files := make(map[string]string)
	for i, d := range dates {
		id := string(rune('a' + i))
		files[id+".md"] = "---\ntitle: " + id + "\ndate: " + d + "\n---\n"
	}
	repo := newRepo(t, files)

	got, err := repo.SortedPostsData()
	require.NoError(t, err)
	require.Len(t, got, len(dates))
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Date, got[i].Date, "entries %d and %d out of order", i-1, i)
	}
}

func TestSortedPostsDataPropagatesParseErrors(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"good.md": "---\ntitle: G\ndate: 2020-01-01\n---\n",
		"bad.md":  "---\ntitle: [oops\n---\n",
	})

	_, err := repo.SortedPostsData()
	var fmErr *posts.FrontMatterError
	require.True(t, errors.As(err, &fmErr), "got %v", err)
	assert.Equal(t, "bad", fmErr.ID)
}

func TestSortedPostsDataNonMarkdownFileFails(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"ok.md":     "---\ntitle: G\ndate: 2020-01-01\n---\n",
		"image.png": "binary",
	})

	_, err := repo.SortedPostsData()
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)
}

func TestAllPostIDsOnePerFile(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"ssg-ssr.md":       "---\ntitle: SSG\ndate: 2020-01-01\n---\n",
		"pre-rendering.md": "no front matter",
	})

	paths, err := repo.AllPostIDs()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	for _, p := range paths {
		require.NotNil(t, p.Params)
	}
}

func TestPostData(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"hello.md": "---\ntitle: Hello\ndate: 2020-01-01\n---\n# Greeting\n\nSome **bold** text.\n",
	})

	post, err := repo.PostData(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", post.ID)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, "2020-01-01", post.Date)
	assert.Contains(t, post.ContentHTML, "<h1")
	assert.Contains(t, post.ContentHTML, "<strong>bold</strong>")
}

func TestPostDataDefaultsMissingFields(t *testing.T) {
	repo := newRepo(t, map[string]string{
		"c.md": "---\ntitle: C\n---\nbody",
		"n.md": "nothing at all",
	})

	post, err := repo.PostData(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "C", post.Title)
	assert.Equal(t, posts.Undefined, post.Date)

	post, err = repo.PostData(context.Background(), "n")
	require.NoError(t, err)
	assert.Equal(t, "undefined", post.Title)
	assert.Equal(t, "undefined", post.Date)
	assert.Contains(t, post.ContentHTML, "nothing at all")
}

func TestPostDataMissingFile(t *testing.T) {
	repo := newRepo(t, nil)
	post, err := repo.PostData(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, posts.Post{}, post)
}

func TestPostDataRendererError(t *testing.T) {
	boom := errors.New("boom")
	dir := writePosts(t, map[string]string{"x.md": "body"})
	repo := posts.NewRepository(dir, posts.RendererFunc(func(ctx context.Context, src []byte) (string, error) {
		return "", boom
	}))

	_, err := repo.PostData(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestPostDataPassesBodyToRenderer(t *testing.T) {
	var seen string
	dir := writePosts(t, map[string]string{"x.md": "---\ntitle: X\n---\nthe body"})
	repo := posts.NewRepository(dir, posts.RendererFunc(func(ctx context.Context, src []byte) (string, error) {
		seen = string(src)
		return strings.ToUpper(seen), nil
	}))

	post, err := repo.PostData(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "the body", seen)
	assert.Equal(t, "THE BODY", post.ContentHTML)
}

func TestPostPropsNilParams(t *testing.T) {
	repo := newRepo(t, nil)
	_, err := repo.PostProps(context.Background(), nil)
	assert.ErrorIs(t, err, posts.ErrMissingParams)
}

func TestFieldOr(t *testing.T) {
	assert.Equal(t, "fallback", posts.Field{}.Or("fallback"))
	assert.Equal(t, "", posts.Field{Present: true}.Or("fallback"))
	assert.Equal(t, "v", posts.Field{Value: "v", Present: true}.Or("fallback"))
}
