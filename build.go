package pubstatic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/pubstatic/posts"
	"github.com/eringen/pubstatic/views"
)

// BuildResult summarizes one run of the Builder.
type BuildResult struct {
	BuildID       int64
	Pages         int // post pages in the output
	Written       int // post pages rewritten this run
	Skipped       int // post pages left untouched because nothing changed
	Removed       int // pages of posts that no longer exist
	Static        int // files copied from the static directory
	Resized       int // images downscaled while copying
	StaticRemoved int // public files whose source left the static directory
	Duration      time.Duration
}

// Builder generates the static site: one page per post, the index, the feed
// and the sitemap, plus the public assets.
type Builder struct {
	cfg    SiteConfig
	repo   *posts.Repository
	store  *Store
	logger zerolog.Logger

	mu sync.Mutex
}

type renderedPage struct {
	post posts.Post
	html []byte
}

// NewBuilder returns a Builder writing to cfg.OutputDir. store may be nil,
// in which case every page is rewritten and no build history is kept.
func NewBuilder(cfg SiteConfig, repo *posts.Repository, store *Store, logger zerolog.Logger) *Builder {
	cfg.setDefaults()
	return &Builder{cfg: cfg, repo: repo, store: store, logger: logger}
}

// Build runs a full generation. Builds are serialized; the first failing
// post aborts the whole build.
func (b *Builder) Build(ctx context.Context) (BuildResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	started := time.Now()
	res, err := b.build(ctx)
	res.Duration = time.Since(started)

	if b.store != nil {
		rec := Build{StartedAt: started, FinishedAt: time.Now(), Pages: res.Pages, Status: "ok"}
		if err != nil {
			rec.Status = "failed"
			rec.Error = err.Error()
		}
		id, recErr := b.store.RecordBuild(rec)
		if recErr != nil {
			b.logger.Warn().Err(recErr).Msg("record build")
		}
		res.BuildID = id
	}

	if err != nil {
		b.logger.Error().Err(err).Dur("took", res.Duration).Msg("build failed")
		return res, err
	}
	b.logger.Info().
		Int("pages", res.Pages).
		Int("written", res.Written).
		Int("skipped", res.Skipped).
		Int("removed", res.Removed).
		Int("static_removed", res.StaticRemoved).
		Int("static", res.Static).
		Dur("took", res.Duration).
		Msg("build finished")
	return res, nil
}

func (b *Builder) build(ctx context.Context) (BuildResult, error) {
	var res BuildResult
	site := b.cfg.site()

	paths, err := b.repo.AllPostIDs()
	if err != nil {
		return res, err
	}
	summaries, err := b.repo.SortedPostsData()
	if err != nil {
		return res, err
	}
	listed := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		listed[s.ID] = true
	}

	pages := make([]renderedPage, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for i, p := range paths {
		g.Go(func() error {
			post, err := b.repo.PostProps(gctx, p.Params)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := views.Post(site, post).Render(gctx, &buf); err != nil {
				return fmt.Errorf("pubstatic: render post %s: %w", post.ID, err)
			}
			pages[i] = renderedPage{post: post, html: buf.Bytes()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	current := make(map[string]bool, len(pages))
	for _, pg := range pages {
		current[pg.post.ID] = true
		written, err := b.writePostPage(pg, listed[pg.post.ID])
		if err != nil {
			return res, err
		}
		if written {
			res.Written++
		} else {
			res.Skipped++
		}
	}
	res.Pages = len(pages)

	if err := b.writeFile("index.html", func(w io.Writer) error {
		return views.Home(site, summaries).Render(ctx, w)
	}); err != nil {
		return res, err
	}
	if err := b.writeFile("feed.xml", func(w io.Writer) error {
		return WriteRSS(w, b.cfg, summaries)
	}); err != nil {
		return res, err
	}
	if err := b.writeFile("sitemap.xml", func(w io.Writer) error {
		return WriteSitemap(w, b.cfg, summaries)
	}); err != nil {
		return res, err
	}

	publicDir := filepath.Join(b.cfg.OutputDir, "public")
	res.Static, res.Resized, err = copyStaticDir(b.cfg.StaticDir, publicDir, b.cfg.MaxImageWidth)
	if err != nil {
		return res, err
	}
	if err := b.writeDefaultStyle(publicDir); err != nil {
		return res, err
	}
	res.StaticRemoved, err = pruneStaticDir(b.cfg.StaticDir, publicDir, "style.css")
	if err != nil {
		return res, err
	}

	res.Removed, err = b.prune(current)
	if err != nil {
		return res, err
	}
	return res, nil
}

// writePostPage writes posts/<id>/index.html unless the manifest already
// holds the same content and the file is still on disk.
func (b *Builder) writePostPage(pg renderedPage, isListed bool) (bool, error) {
	rel := filepath.Join("posts", pg.post.ID, "index.html")
	target := filepath.Join(b.cfg.OutputDir, rel)
	hash := hashBytes(pg.html)
	page := Page{
		PostID:  pg.post.ID,
		Title:   pg.post.Title,
		Date:    pg.post.Date,
		Listed:  isListed,
		Path:    filepath.ToSlash(rel),
		Hash:    hash,
		BuiltAt: time.Now(),
	}

	if b.store != nil {
		prev, err := b.store.GetPage(pg.post.ID)
		switch {
		case err == nil && prev.Hash == hash && fileExists(target):
			page.BuiltAt = prev.BuiltAt
			if prev.Listed != isListed {
				if err := b.store.SavePage(page); err != nil {
					return false, err
				}
			}
			b.logger.Debug().Str("post", pg.post.ID).Msg("unchanged, skipping")
			return false, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return false, err
		}
	}

	if err := b.writeFile(rel, func(w io.Writer) error {
		_, err := w.Write(pg.html)
		return err
	}); err != nil {
		return false, err
	}
	if b.store != nil {
		if err := b.store.SavePage(page); err != nil {
			return false, err
		}
	}
	b.logger.Debug().Str("post", pg.post.ID).Str("path", page.Path).Msg("wrote page")
	return true, nil
}

// writeDefaultStyle installs the embedded stylesheet unless the static
// directory already provided one.
func (b *Builder) writeDefaultStyle(publicDir string) error {
	target := filepath.Join(publicDir, "style.css")
	if fileExists(filepath.Join(b.cfg.StaticDir, "style.css")) {
		return nil
	}
	css, err := fs.ReadFile(EmbeddedAssets, "embedded/style.css")
	if err != nil {
		return fmt.Errorf("pubstatic: read embedded style: %w", err)
	}
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		return fmt.Errorf("pubstatic: write style: %w", err)
	}
	if err := os.WriteFile(target, css, 0o644); err != nil {
		return fmt.Errorf("pubstatic: write style: %w", err)
	}
	return nil
}

// prune removes pages of posts that were built before but are gone now.
func (b *Builder) prune(current map[string]bool) (int, error) {
	if b.store == nil {
		return 0, nil
	}
	pages, err := b.store.ListPages()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range pages {
		if current[p.PostID] {
			continue
		}
		dir := filepath.Join(b.cfg.OutputDir, "posts", p.PostID)
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("pubstatic: prune %s: %w", p.PostID, err)
		}
		if err := b.store.DeletePage(p.PostID); err != nil {
			return removed, err
		}
		b.logger.Info().Str("post", p.PostID).Msg("removed stale page")
		removed++
	}
	return removed, nil
}

// writeFile creates rel under the output directory and fills it with fn.
func (b *Builder) writeFile(rel string, fn func(io.Writer) error) error {
	target := filepath.Join(b.cfg.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("pubstatic: write %s: %w", rel, err)
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return fmt.Errorf("pubstatic: write %s: %w", rel, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("pubstatic: write %s: %w", rel, err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
