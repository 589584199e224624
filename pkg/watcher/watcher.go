package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches files for changes and triggers debounced callbacks
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	log       *slog.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	debounce  time.Duration
	timers    map[string]*time.Timer
}

// NewFileWatcher creates a new file watcher. A nil logger discards errors.
func NewFileWatcher(debounce time.Duration, log *slog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &FileWatcher{
		watcher:   watcher,
		log:       log,
		callbacks: make(map[string]func(string)),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Watch starts watching the specified files.
// callback will be called when any of the files change
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		// editors often replace files, so watch the directory
		if err := fw.watcher.Add(filepath.Dir(absPath)); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absPath, err)
		}

		fw.callbacks[absPath] = callback
	}

	return nil
}

// Start begins watching for file changes until ctx is done
func (fw *FileWatcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					fw.handleFileChange(event.Name)
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.log.Error("watcher error", slog.Any("error", err))
			}
		}
	}()
}

// handleFileChange handles a file change event with debouncing
func (fw *FileWatcher) handleFileChange(filePath string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		fw.log.Debug("file changed", slog.String("path", filePath))
		callback(filePath)
	})
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.mu.Unlock()
	return fw.watcher.Close()
}
