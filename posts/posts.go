// Package posts reads markdown posts from a directory and turns them into
// summaries, static paths and fully rendered records.
//
// Every operation reads from disk on each call; nothing is cached and a
// Repository holds no mutable state, so it is safe for concurrent use.
package posts

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Ext is the file extension stripped from filenames to form identifiers.
const Ext = ".md"

// Undefined is the placeholder used by PostData for absent title or date.
const Undefined = "undefined"

var (
	// ErrInvalidID is returned for identifiers that cannot name a file
	// directly inside the posts directory.
	ErrInvalidID = errors.New("posts: invalid post id")
	// ErrMissingParams is returned when a static path carries no parameters.
	ErrMissingParams = errors.New("posts: params is undefined")
)

// FrontMatterError reports a front matter block that could not be decoded.
type FrontMatterError struct {
	ID  string
	Err error
}

func (e *FrontMatterError) Error() string {
	if e.ID == "" {
		return "posts: front matter: " + e.Err.Error()
	}
	return fmt.Sprintf("posts: front matter of %q: %v", e.ID, e.Err)
}

func (e *FrontMatterError) Unwrap() error { return e.Err }

// Summary is the listing record of a post.
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// Post is a summary plus the rendered HTML body.
type Post struct {
	Summary
	ContentHTML string `json:"contentHtml"`
}

// PathParams are the routing parameters of one post page.
type PathParams struct {
	ID string `json:"id"`
}

// StaticPath is the routing record produced for every post file.
type StaticPath struct {
	Params *PathParams `json:"params"`
}

// Renderer converts a markdown body into HTML. Render blocks until the
// conversion finishes.
type Renderer interface {
	Render(ctx context.Context, source []byte) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, source []byte) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, source []byte) (string, error) {
	return f(ctx, source)
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// Repository reads posts from a single flat directory.
type Repository struct {
	dir      string
	renderer Renderer
	logger   zerolog.Logger
}

// NewRepository returns a Repository rooted at dir that renders bodies with
// renderer.
func NewRepository(dir string, renderer Renderer, opts ...Option) *Repository {
	r := &Repository{
		dir:      dir,
		renderer: renderer,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dir returns the posts directory.
func (r *Repository) Dir() string {
	return r.dir
}

// ListIDs returns one identifier per file in the posts directory, in
// directory order. Subdirectories are skipped.
func (r *Repository) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("posts: list %s: %w", r.dir, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), Ext))
	}
	return ids, nil
}

// Path returns the file path backing id.
func (r *Repository) Path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(r.dir, id+Ext), nil
}

// ReadRaw returns the complete contents of the file for id. A missing file
// yields an error satisfying errors.Is(err, fs.ErrNotExist).
func (r *Repository) ReadRaw(id string) (string, error) {
	path, err := r.Path(id)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("posts: read %s: %w", id, err)
	}
	return string(b), nil
}

func (r *Repository) parse(id string) (Parsed, error) {
	raw, err := r.ReadRaw(id)
	if err != nil {
		return Parsed{}, err
	}
	p, err := ParseFrontMatter(raw)
	if err != nil {
		var fmErr *FrontMatterError
		if errors.As(err, &fmErr) {
			fmErr.ID = id
		}
		return Parsed{}, err
	}
	return p, nil
}

// SortedPostsData returns summaries of every post that declares both title
// and date, newest first. Dates are compared as plain strings, so they must
// use a lexicographically sortable format such as YYYY-MM-DD.
func (r *Repository) SortedPostsData() ([]Summary, error) {
	ids, err := r.ListIDs()
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		p, err := r.parse(id)
		if err != nil {
			return nil, err
		}
		meta := p.Metadata
		if !meta.Title.Present || !meta.Date.Present {
			r.logger.Debug().Str("id", id).Msg("post lacks title or date, left out of listing")
			continue
		}
		summaries = append(summaries, Summary{
			ID:    id,
			Title: meta.Title.Value,
			Date:  meta.Date.Value,
		})
	}
	slices.SortStableFunc(summaries, func(a, b Summary) int {
		return cmp.Compare(b.Date, a.Date)
	})
	return summaries, nil
}

// AllPostIDs returns a static path for every file in the posts directory,
// unfiltered and unsorted.
func (r *Repository) AllPostIDs() ([]StaticPath, error) {
	ids, err := r.ListIDs()
	if err != nil {
		return nil, err
	}
	paths := make([]StaticPath, len(ids))
	for i, id := range ids {
		paths[i] = StaticPath{Params: &PathParams{ID: id}}
	}
	return paths, nil
}

// PostData reads, parses and renders the post id. Absent title or date are
// reported as Undefined rather than failing.
func (r *Repository) PostData(ctx context.Context, id string) (Post, error) {
	p, err := r.parse(id)
	if err != nil {
		return Post{}, err
	}
	html, err := r.renderer.Render(ctx, []byte(p.Body))
	if err != nil {
		return Post{}, fmt.Errorf("posts: render %s: %w", id, err)
	}
	return Post{
		Summary: Summary{
			ID:    id,
			Title: p.Metadata.Title.Or(Undefined),
			Date:  p.Metadata.Date.Or(Undefined),
		},
		ContentHTML: html,
	}, nil
}

// PostProps resolves the record for a static path's parameters.
func (r *Repository) PostProps(ctx context.Context, params *PathParams) (Post, error) {
	if params == nil {
		return Post{}, ErrMissingParams
	}
	return r.PostData(ctx, params.ID)
}
