package quill

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchConfig reloads the config file at path whenever it changes and hands the result to fn,
// along with the load error if any. The watch starts before WatchConfig returns and stops
// when ctx is done. fn is called from the watching goroutine.
func WatchConfig(ctx context.Context, path string, fn func(Config, error)) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	// editors replace files on save: watch the directory, not the file
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config %s: %w", path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				fn(LoadConfig(path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fn(Config{}, fmt.Errorf("watch config %s: %w", path, err))
			}
		}
	}()

	return nil
}
