// Package watch invalidates cached translation sources when their
// backing files change on disk. It is an optional hook on top of the
// engine's append only cache: without a watcher, entries persist for
// the process lifetime.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pitabwire/util"

	"github.com/pitabwire/lingua/cache"
	"github.com/pitabwire/lingua/resource"
)

// Watcher observes source files and drops their cache entries on
// change. The optional onChange callback receives the changed path so
// the host can re-activate the current locale.
type Watcher struct {
	watcher  *fsnotify.Watcher
	resolver cache.Invalidator
	onChange func(path string)
	log      *util.LogEntry

	closeOnce sync.Once
}

// New creates a watcher and starts processing events until ctx ends or
// Close is called.
func New(ctx context.Context, resolver cache.Invalidator, onChange func(path string)) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating source watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fsWatcher,
		resolver: resolver,
		onChange: onChange,
		log:      util.Log(ctx),
	}

	go w.processEvents(ctx)

	return w, nil
}

// Add watches a source file, or every file in a directory when the
// path is one.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %q for watching: %w", path, err)
	}

	if info.IsDir() {
		return w.watcher.Add(path)
	}

	// Watching the parent directory survives editors that replace the
	// file on save.
	if err = w.watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			key := resource.FileKey(event.Name)
			w.resolver.Invalidate(key)
			w.log.WithField("path", event.Name).WithField("op", event.Op.String()).
				Debug("source changed, cache entry invalidated")

			if w.onChange != nil {
				w.onChange(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("source watcher error")
		}
	}
}

// Close stops watching. Safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
