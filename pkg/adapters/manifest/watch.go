package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch implements ports.Watchable. It reports manifest files that are
// written, created, renamed or removed, including in extensions installed
// after the watch started.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start manifest watcher: %w", err)
	}
	if err := w.Add(c.root); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", c.root, err)
	}
	entries, _ := os.ReadDir(c.root)
	for _, entry := range entries {
		if entry.IsDir() {
			if err := w.Add(filepath.Join(c.root, entry.Name())); err != nil {
				c.logger.Warn("cannot watch extension dir", "dir", entry.Name(), "error", err)
			}
		}
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				c.logger.Warn("manifest watcher error", "error", err)
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				if evt.Has(fsnotify.Create) && filepath.Dir(evt.Name) == filepath.Clean(c.root) {
					if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
						_ = w.Add(evt.Name)
						// The manifest may have been written before the watch was added.
						if path, _, ok := findManifest(evt.Name); ok {
							if !send(ctx, ch, path) {
								return
							}
						}
						continue
					}
				}
				if !isManifest(evt.Name) || evt.Op == fsnotify.Chmod {
					continue
				}
				if !send(ctx, ch, evt.Name) {
					return
				}
			}
		}
	}()
	return ch, nil
}

func send(ctx context.Context, ch chan<- string, path string) bool {
	select {
	case ch <- path:
		return true
	case <-ctx.Done():
		return false
	}
}
