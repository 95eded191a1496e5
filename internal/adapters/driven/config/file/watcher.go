package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// PromptWatcher reloads a PromptStore whenever a prompt file in its
// directory is written, created, removed or renamed.
type PromptWatcher struct {
	store driven.PromptStore
	dir   string
}

// NewPromptWatcher creates a watcher for the prompt files in dir.
func NewPromptWatcher(store driven.PromptStore, dir string) *PromptWatcher {
	return &PromptWatcher{store: store, dir: dir}
}

// Watch starts watching until ctx is cancelled. The returned channel
// receives the name of each prompt that was reloaded and is closed when
// watching stops.
func (w *PromptWatcher) Watch(ctx context.Context) (<-chan string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", w.dir, err)
	}

	reloaded := make(chan string, 8)
	go func() {
		defer close(reloaded)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				name, changed := w.handleFsEvent(event)
				if !changed {
					continue
				}
				select {
				case reloaded <- name:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Prompt watcher: %v", err)
			}
		}
	}()

	return reloaded, nil
}

// handleFsEvent reloads the store for events on prompt files and returns
// the affected prompt name.
func (w *PromptWatcher) handleFsEvent(event fsnotify.Event) (string, bool) {
	base := filepath.Base(event.Name)
	if filepath.Ext(base) != ".txt" || strings.HasPrefix(base, ".") {
		return "", false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}

	name := strings.TrimSuffix(base, ".txt")
	w.store.Reload()
	logger.Debug("Reloaded prompt %s after %s", name, event.Op)
	return name, true
}
