package catalog

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// EventOp represents the type of file system operation.
type EventOp int

const (
	// OpCreate indicates a new entity file was created.
	OpCreate EventOp = iota
	// OpModify indicates an existing entity file was modified.
	OpModify
	// OpDelete indicates an entity file was deleted.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op EventOp) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Event represents a file system event for a catalog entity file.
type Event struct {
	// Path is the absolute path of the entity JSON file that changed.
	Path string
	// Op is the operation that occurred (create, modify, delete).
	Op EventOp
}

// entityFiles is the set of JSON filenames that carry catalog entities.
// Other JSON files in the checkout (schemas, exports) are ignored.
var entityFiles = map[string]bool{
	"store.json":    true,
	"brand.json":    true,
	"material.json": true,
	"filament.json": true,
	"variant.json":  true,
}

// Watcher watches a catalog checkout for entity file changes. Long-running
// commands use it to refresh base data so overlays reflect the checkout as
// it changes underneath the staged edits.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewWatcher creates a new Watcher. It must be started with Start() before
// it will emit events.
func NewWatcher() (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: watcher,
		events:  make(chan Event, 100),
		errors:  make(chan error, 10),
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching the data and stores directories, including every
// nested entity directory. fsnotify does not recurse, so each directory is
// registered individually; directories created after Start are picked up
// from their create events.
func (w *Watcher) Start(dataDir, storesDir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	for _, root := range []string{dataDir, storesDir} {
		if err := w.addTree(root); err != nil {
			return err
		}
	}

	w.running = true
	w.wg.Add(1)
	go w.processEvents()

	return nil
}

// Stop stops watching and cleans up resources. It blocks until the event
// processing goroutine has exited.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}

	w.wg.Wait()

	close(w.events)
	close(w.errors)

	return nil
}

// Events returns the channel that emits Event notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel that emits error notifications.
// This channel is closed when the watcher is stopped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// IsRunning returns true if the watcher is currently running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// addTree registers dir and every non-hidden subdirectory with the
// underlying watcher. A missing root is not an error; the checkout may not
// contain a stores directory.
func (w *Watcher) addTree(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); strings.HasPrefix(name, ".") && path != root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// processEvents is the main loop converting fsnotify events into Events.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New entity directories need their own watch.
			if event.Has(fsnotify.Create) {
				if base := filepath.Base(event.Name); !strings.Contains(base, ".") {
					_ = w.watcher.Add(event.Name)
				}
			}

			if catalogEvent, ok := w.convertEvent(event); ok {
				select {
				case w.events <- catalogEvent:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// convertEvent converts an fsnotify event to an Event. Returns false for
// events on files that are not catalog entity files.
func (w *Watcher) convertEvent(event fsnotify.Event) (Event, bool) {
	if !entityFiles[filepath.Base(event.Name)] {
		return Event{}, false
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove):
		op = OpDelete
	case event.Has(fsnotify.Rename):
		// Treat rename as delete (the new name will trigger a create).
		op = OpDelete
	default:
		// Ignore chmod and other events.
		return Event{}, false
	}

	return Event{Path: event.Name, Op: op}, true
}
