// Package watch reports changes to a set of files.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the bursts of events editors produce on save.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches files through their parent directories, so files replaced
// by a rename are still seen.
type Watcher struct {
	Debounce time.Duration

	watcher *fsnotify.Watcher
	files   map[string]bool
	dirs    []string
}

// New watches paths.
func New(paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating fsnotify watcher: %w", err)
	}

	w := &Watcher{Debounce: DefaultDebounce, watcher: fw, files: map[string]bool{}}
	seen := map[string]bool{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.files[abs] = true

		dir := filepath.Dir(abs)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("error adding dir to fsnotify watcher: %w", err)
		}
		w.dirs = append(w.dirs, dir)
		log.Debug("fsnotify watching dir", "dir", dir)
	}
	return w, nil
}

// Run calls fn with the changed file after each burst of writes, until ctx
// is done. fn runs on the calling goroutine.
func (w *Watcher) Run(ctx context.Context, fn func(path string)) error {
	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)

			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			fn(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "error", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	for _, dir := range w.dirs {
		if err := w.watcher.Remove(dir); err != nil {
			log.Debug("fsnotify fail to unwatch dir", "dir", dir, "error", err)
		}
	}
	return w.watcher.Close()
}
