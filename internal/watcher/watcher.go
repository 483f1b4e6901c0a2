// Package watcher rebuilds the index when the docs directory changes.
package watcher

import (
	"context"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Matcher reports whether a slash-separated relative path is indexed.
type Matcher interface {
	Matches(relPath string) bool
}

// RebuildFunc rebuilds and publishes the index.
type RebuildFunc func(ctx context.Context) error

// Watcher coalesces bursts of file events under root into a single rebuild.
// Rebuilds run one at a time on the watch goroutine.
type Watcher struct {
	root     string
	debounce time.Duration
	matcher  Matcher
	rebuild  RebuildFunc
	logger   *slog.Logger

	rebuilds atomic.Int64
}

func New(root string, debounce time.Duration, matcher Matcher, rebuild RebuildFunc) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		matcher:  matcher,
		rebuild:  rebuild,
		logger:   slog.Default().With(slog.String("component", "watcher")),
	}
}

// Rebuilds returns how many rebuilds have been attempted.
func (w *Watcher) Rebuilds() int64 {
	return w.rebuilds.Load()
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	root, err := filepath.Abs(w.root)
	if err != nil {
		return err
	}
	w.root = root
	if info, err := os.Stat(root); err != nil {
		return err
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	if err := addRecursive(fsw, root); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}
	w.logger.Info("watching", slog.String("root", root), slog.Duration("debounce", w.debounce))

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
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(fsw, event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.rebuilds.Add(1)
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("rebuild_failed", slog.String("error", err.Error()))
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch_error", slog.String("error", err.Error()))
		}
	}
}

// relevant filters events to those that can change the index. New
// directories are added to the watch list.
func (w *Watcher) relevant(fsw *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := addRecursive(fsw, event.Name); err != nil {
				w.logger.Warn("watch_add_failed", slog.String("path", rel), slog.String("error", err.Error()))
			}
			return true
		}
	}

	// A removed or renamed directory can no longer be inspected.
	if event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		if filepath.Ext(rel) == "" {
			return true
		}
	}

	return w.matcher == nil || w.matcher.Matches(rel)
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
