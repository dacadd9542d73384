package docsync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/econbot/docsync/internal/utils"
)

var (
	ErrMonitorClosed = errors.New("monitor closed")
	ErrRootNotExist  = errors.New("watched root does not exist")
)

// Monitor subscribes recursively to a root directory and emits change
// events for everything below it. It does no filtering beyond mapping
// OS notifications onto the EventKind set; qualification happens in the
// coordinator.
//
// A file renamed into the tree surfaces as a create on most platforms,
// so moved-in events arrive as EventCreated; the distinction does not
// matter downstream.
type Monitor struct {
	Events chan Event
	Errors chan error

	root     string
	watcher  *fsnotify.Watcher
	isClosed bool
	mu       sync.Mutex
}

func NewMonitor(root string) (*Monitor, error) {
	if !utils.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotExist, root)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	m := &Monitor{
		root:    root,
		watcher: watcher,
		Events:  make(chan Event, 16),
		Errors:  make(chan error, 16),
	}

	if err := m.recursivelyAddWatch(root); err != nil {
		watcher.Close()
		return nil, err
	}

	return m, nil
}

// Start consumes the underlying notification stream until ctx is done
// or the watcher closes.
func (m *Monitor) Start(ctx context.Context) error {
	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return ErrMonitorClosed
			}
			m.handleEvent(event)

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return ErrMonitorClosed
			}
			m.handleError(err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Monitor) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isClosed {
		return ErrMonitorClosed
	}
	m.isClosed = true
	close(m.Events)
	close(m.Errors)
	return m.watcher.Close()
}

func (m *Monitor) handleEvent(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Chmod):
		return

	case event.Has(fsnotify.Create):
		info, err := os.Stat(event.Name)
		if err != nil {
			// created and gone again; nothing to do
			return
		}
		if info.IsDir() {
			m.onDirCreate(event.Name)
			return
		}
		m.emit(Event{Kind: EventCreated, Path: event.Name})

	case event.Has(fsnotify.Write):
		m.emit(Event{Kind: EventModified, Path: event.Name})

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		// a rename away from the watched tree is a removal; the new
		// location, if still watched, produces its own create
		m.onRemove(event.Name)
		m.emit(Event{Kind: EventRemoved, Path: event.Name})
	}
}

func (m *Monitor) handleError(err error) {
	select {
	case m.Errors <- err:
	default:
		slog.Warn("dropped error: errors channel full", "error", err)
	}
}

func (m *Monitor) emit(e Event) {
	select {
	case m.Events <- e:
	default:
		slog.Warn("dropped event: events channel full", "path", e.Path, "kind", e.Kind.String())
	}
}

// onDirCreate registers watches for a directory that appeared under the
// root and surfaces the files it already contains, so a folder moved in
// wholesale is picked up file by file.
func (m *Monitor) onDirCreate(dir string) {
	if err := m.recursivelyAddWatch(dir); err != nil {
		slog.Error("failed to watch new directory", "dir", dir, "error", err)
		m.handleError(err)
		return
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			m.emit(Event{Kind: EventMovedIn, Path: path})
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to scan new directory", "dir", dir, "error", err)
		m.handleError(err)
	}
}

func (m *Monitor) onRemove(path string) {
	// can't stat a deleted dir/file, so yolo it
	if err := m.watcher.Remove(path); err != nil && !errors.Is(err, fsnotify.ErrNonExistentWatch) {
		slog.Debug("remove watch", "path", path, "error", err)
	}
}

func (m *Monitor) recursivelyAddWatch(dir string) error {
	slog.Debug("monitor add", "dir", dir)
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}
		if d.IsDir() {
			if err := m.watcher.Add(path); err != nil {
				return fmt.Errorf("fsnotify add watch: %w", err)
			}
		}
		return nil
	})
}
