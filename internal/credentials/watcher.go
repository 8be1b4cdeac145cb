package credentials

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
)

const debounceInterval = 100 * time.Millisecond

// Event is a reload of the watched credentials file. Err is set when the
// new contents could not be loaded; the previous credentials stay in effect.
type Event struct {
	Err         error
	Credentials []models.Credential
}

// Watcher reloads a credentials file whenever it is written.
type Watcher struct {
	mu            sync.Mutex
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	closed        bool
}

// Watch starts watching the credentials file at path.
func Watch(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	// Watch the directory so editors that replace the file are caught.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		watcher:   fsw,
		filePath:  path,
		eventChan: make(chan Event, 8),
		stopChan:  make(chan struct{}),
	}
	go w.watchLoop()
	return w, nil
}

// Events returns the channel of reload events.
func (w *Watcher) Events() <-chan Event {
	return w.eventChan
}

// watchLoop handles file system events with debouncing.
func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.filePath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(Event{Err: err})

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(debounceInterval, w.reload)
}

func (w *Watcher) reload() {
	creds, err := Load(w.filePath)
	if err != nil {
		logger.Warn("credentials reload failed", "path", w.filePath, "error", err)
		w.send(Event{Err: err})
		return
	}
	logger.Debug("credentials reloaded", "path", w.filePath, "orgs", len(creds))
	w.send(Event{Credentials: creds})
}

// send delivers event without blocking, replacing the oldest pending event
// when the buffer is full.
func (w *Watcher) send(event Event) {
	select {
	case w.eventChan <- event:
	default:
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	close(w.stopChan)
	return w.watcher.Close()
}
