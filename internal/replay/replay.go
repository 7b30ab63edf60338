// Package replay serves a captured status response from disk and watches the
// file for changes.
package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/five82/ts3view/internal/viewer"
)

// Ensure Source implements viewer.Source at compile time.
var _ viewer.Source = (*Source)(nil)

// watchDebounce coalesces the burst of events editors emit for one save.
const watchDebounce = 250 * time.Millisecond

// Source serves a captured raw status response from disk. The file is read
// on every fetch so edits show up on the next poll.
type Source struct {
	path string
}

// NewSource resolves path and returns a Source for it.
func NewSource(path string) (*Source, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("replay path is empty")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return nil, fmt.Errorf("resolve replay path: %w", err)
	}
	return &Source{path: abs}, nil
}

// Path returns the absolute path of the replay file.
func (s *Source) Path() string {
	return s.path
}

// Fetch returns the file contents.
func (s *Source) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("read replay: %w", err)
	}
	return string(data), nil
}

// Watch calls onChange after the file at path is written, created or
// renamed into place, debounced. It blocks until ctx is done or the watcher
// fails. The parent directory is watched so atomic saves are picked up.
func Watch(ctx context.Context, path string, onChange func()) error {
	if onChange == nil {
		return fmt.Errorf("onChange is nil")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Clean(path)

	var (
		mu       sync.Mutex
		debounce *time.Timer
	)
	defer func() {
		mu.Lock()
		if debounce != nil {
			debounce.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			mu.Lock()
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				if ctx.Err() == nil {
					onChange()
				}
			})
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}
