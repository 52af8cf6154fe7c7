package pubstatic

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the manifest has no entry for a post.
var ErrNotFound = errors.New("pubstatic: not found")

// Page is the manifest entry of one generated post page.
type Page struct {
	PostID  string
	Title   string
	Date    string
	Listed  bool // included in the summary listing
	Path    string
	Hash    string // sha256 of the rendered HTML
	BuiltAt time.Time
}

// Build is one recorded run of the Builder.
type Build struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Pages      int
	Status     string // "ok" or "failed"
	Error      string
}

// Store wraps a SQLite database holding the build manifest: which pages the
// last build wrote and a history of builds.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pubstatic: store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pubstatic: open store: %w", err)
	}
	// WAL lets the preview server read while a build writes; writers wait
	// on the busy timeout instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("pubstatic: store pragmas: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pubstatic: store schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    post_id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    listed INTEGER NOT NULL DEFAULT 0,
    path TEXT NOT NULL,
    hash TEXT NOT NULL,
    built_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS builds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL,
    finished_at TEXT NOT NULL,
    pages INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    error TEXT NOT NULL DEFAULT ''
);
`)
	return err
}

// SavePage upserts the manifest entry for a post page.
func (s *Store) SavePage(p Page) error {
	listed := 0
	if p.Listed {
		listed = 1
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO pages (post_id, title, date, listed, path, hash, built_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.PostID, p.Title, p.Date, listed, p.Path, p.Hash, p.BuiltAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("pubstatic: save page %s: %w", p.PostID, err)
	}
	return nil
}

// GetPage returns the manifest entry for id, or ErrNotFound.
func (s *Store) GetPage(id string) (Page, error) {
	row := s.db.QueryRow(`SELECT post_id, title, date, listed, path, hash, built_at FROM pages WHERE post_id = ?`, id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("pubstatic: get page %s: %w", id, err)
	}
	return p, nil
}

// ListPages returns every manifest entry ordered by post id.
func (s *Store) ListPages() ([]Page, error) {
	rows, err := s.db.Query(`SELECT post_id, title, date, listed, path, hash, built_at FROM pages ORDER BY post_id`)
	if err != nil {
		return nil, fmt.Errorf("pubstatic: list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("pubstatic: list pages: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// DeletePage removes the manifest entry for id. Deleting an unknown id is
// not an error.
func (s *Store) DeletePage(id string) error {
	if _, err := s.db.Exec(`DELETE FROM pages WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("pubstatic: delete page %s: %w", id, err)
	}
	return nil
}

// RecordBuild appends b to the build history and returns its id.
func (s *Store) RecordBuild(b Build) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO builds (started_at, finished_at, pages, status, error) VALUES (?, ?, ?, ?, ?)`,
		b.StartedAt.UTC().Format(time.RFC3339Nano), b.FinishedAt.UTC().Format(time.RFC3339Nano), b.Pages, b.Status, b.Error)
	if err != nil {
		return 0, fmt.Errorf("pubstatic: record build: %w", err)
	}
	return res.LastInsertId()
}

// ListBuilds returns up to limit builds, newest first. A limit <= 0 returns
// all of them.
func (s *Store) ListBuilds(limit int) ([]Build, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT id, started_at, finished_at, pages, status, error FROM builds ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("pubstatic: list builds: %w", err)
	}
	defer rows.Close()

	var builds []Build
	for rows.Next() {
		var b Build
		var started, finished string
		if err := rows.Scan(&b.ID, &started, &finished, &b.Pages, &b.Status, &b.Error); err != nil {
			return nil, fmt.Errorf("pubstatic: list builds: %w", err)
		}
		b.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		b.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(r rowScanner) (Page, error) {
	var p Page
	var listed int
	var builtAt string
	if err := r.Scan(&p.PostID, &p.Title, &p.Date, &listed, &p.Path, &p.Hash, &builtAt); err != nil {
		return Page{}, err
	}
	p.Listed = listed == 1
	p.BuiltAt, _ = time.Parse(time.RFC3339, builtAt)
	return p, nil
}
