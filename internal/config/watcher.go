package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/aichat/internal/logger"
)

const debounceInterval = 100 * time.Millisecond

// Watcher reports changes to the secret stored in a .env file.
type Watcher struct {
	path     string
	log      *slog.Logger
	onChange func(secret string)
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	stopOnce sync.Once

	mu            sync.Mutex
	last          string
	debounceTimer *time.Timer
}

// NewWatcher starts watching path. onChange runs on its own goroutine with
// the new secret each time the stored value changes.
func NewWatcher(path string, onChange func(secret string), log *slog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:     path,
		log:      logger.OrDiscard(log),
		onChange: onChange,
		watcher:  watcher,
		stopChan: make(chan struct{}),
	}
	w.last, _ = ReadSecret(path)

	// Watch the directory to catch the file being created or replaced
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			w.log.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	go w.watchLoop()
	return w, nil
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.mu.Lock()
				if w.debounceTimer != nil {
					w.debounceTimer.Stop()
				}
				w.debounceTimer = time.AfterFunc(debounceInterval, w.handleFileChange)
				w.mu.Unlock()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("env watcher error", "error", err)

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handleFileChange() {
	secret, err := ReadSecret(w.path)
	if err != nil {
		w.log.Warn("failed to reload env file", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	changed := secret != w.last
	w.last = secret
	w.mu.Unlock()

	if changed && w.onChange != nil {
		w.log.Info("api secret changed on disk", "path", w.path)
		w.onChange(secret)
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopChan)
		w.mu.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}
