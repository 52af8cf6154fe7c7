package pubstatic

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the Watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the posts and static directories and calls its callbacks
// once a burst of file changes has settled.
type Watcher struct {
	dirs      []string
	debounce  time.Duration
	callbacks []func(ctx context.Context)
	log       zerolog.Logger
}

// NewWatcher creates a watcher over dirs. Directories that do not exist are
// skipped when Run starts.
func NewWatcher(log zerolog.Logger, dirs ...string) *Watcher {
	return &Watcher{
		dirs:     dirs,
		debounce: DefaultDebounce,
		log:      log.With().Str("component", "watcher").Logger(),
	}
}

// SetDebounce overrides DefaultDebounce.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// OnChange registers fn to run after each settled burst of changes.
// Callbacks run sequentially on the watcher goroutine.
func (w *Watcher) OnChange(fn func(ctx context.Context)) {
	w.callbacks = append(w.callbacks, fn)
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("pubstatic: watcher: %w", err)
	}
	defer fw.Close()

	added := 0
	for _, dir := range w.dirs {
		if err := addRecursive(fw, dir); err != nil {
			w.log.Debug().Err(err).Str("dir", dir).Msg("skipping directory")
			continue
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("pubstatic: watcher: none of %v can be watched", w.dirs)
	}
	w.log.Info().Strs("dirs", w.dirs).Dur("debounce", w.debounce).Msg("watching")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if shouldIgnore(event.Name) {
				continue
			}
			w.log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("file system event")
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(fw, event.Name)
				}
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			for _, fn := range w.callbacks {
				fn(ctx)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error().Err(err).Msg("watcher error")
		}
	}
}

func addRecursive(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return fw.Add(p)
		}
		return nil
	})
}

// ignorePatterns match editor swap files, backups and dotfiles by base name.
var ignorePatterns = []string{".*", "*.tmp", "*.swp", "*.swx", "*~"}

func shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range ignorePatterns {
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}
