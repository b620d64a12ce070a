// Package watch reports changes to files in the storytime data directory.
package watch

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event names a watched file that changed.
type Event struct {
	Name string
	At   time.Time
}

// Watcher monitors a directory and emits one debounced event per changed
// file of interest.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	names     map[string]bool
	pending   map[string]time.Time
	mu        sync.Mutex
	events    chan Event
	errors    chan error
	done      chan struct{}
	closeOnce sync.Once
	debounce  time.Duration
}

// New watches dir for writes to files whose base name is in names.
func New(dir string, names []string, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		names:     make(map[string]bool, len(names)),
		pending:   make(map[string]time.Time),
		events:    make(chan Event, 16),
		errors:    make(chan error, 4),
		done:      make(chan struct{}),
		debounce:  debounce,
	}
	for _, name := range names {
		w.names[name] = true
	}

	go w.run()

	return w, nil
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) run() {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Base(event.Name)
	if !w.names[name] {
		return
	}
	w.mu.Lock()
	w.pending[name] = time.Now()
	w.mu.Unlock()
}

// flush emits files that have been quiet for a full debounce interval.
func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	for name, last := range w.pending {
		if now.Sub(last) < w.debounce {
			continue
		}
		select {
		case w.events <- Event{Name: name, At: last}:
			delete(w.pending, name)
		default:
		}
	}
}
