// Package watch adapts filesystem notifications into debounced batches of
// changed paths.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/twm/internal/logfields"
	"git.home.luguber.info/inful/twm/internal/util/sets"
)

// Op classifies a raw filesystem event.
type Op uint8

const (
	OpWrite Op = 1 << iota
	OpCreate
	OpRemove
	OpRename
	OpChmod
)

// Event is one raw notification for an absolute path.
type Event struct {
	Path string
	Op   Op
}

// Changed reports whether the event means the file content may differ.
func (e Event) Changed() bool { return e.Op&(OpWrite|OpCreate) != 0 }

// Source is the filesystem-watch primitive.
type Source interface {
	// Watch subscribes to notifications for the given file paths.
	Watch(paths []string) error
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// FSNotifySource implements Source on fsnotify. fsnotify watches directories,
// so the parent directory of every tracked path is added once.
type FSNotifySource struct {
	w      *fsnotify.Watcher
	events chan Event
	errors chan error
	dirs   sets.Set[string]
	mu     sync.Mutex
	done   chan struct{}
	once   sync.Once
}

// NewFSNotifySource creates a started source.
func NewFSNotifySource() (*FSNotifySource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	s := &FSNotifySource{
		w:      w,
		events: make(chan Event, 64),
		errors: make(chan error, 8),
		dirs:   sets.New[string](),
		done:   make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

// Watch adds the parent directory of every path. A directory that cannot be
// added is logged and skipped; Watch fails only when none of the new
// directories could be added.
func (s *FSNotifySource) Watch(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	added := 0
	for _, p := range paths {
		dir := filepath.Dir(p)
		if !s.dirs.Add(dir) {
			continue
		}
		if err := s.w.Add(dir); err != nil {
			s.dirs.Delete(dir)
			slog.Warn("Watch add failed", logfields.Path(dir), logfields.Error(err))
			errs = append(errs, fmt.Errorf("watch %s: %w", dir, err))
			continue
		}
		added++
	}
	if added == 0 && len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *FSNotifySource) Events() <-chan Event { return s.events }
func (s *FSNotifySource) Errors() <-chan error { return s.errors }

// WatchedDirs is the number of directories registered with fsnotify.
func (s *FSNotifySource) WatchedDirs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirs.Len()
}

func (s *FSNotifySource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.w.Close()
	})
	return err
}

func (s *FSNotifySource) loop() {
	defer close(s.events)
	defer close(s.errors)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.w.Events:
			if !ok {
				return
			}
			out := Event{Path: filepath.Clean(ev.Name), Op: convertOp(ev.Op)}
			select {
			case s.events <- out:
			case <-s.done:
				return
			}
		case err, ok := <-s.w.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			default:
				slog.Warn("Watcher error dropped", logfields.Error(err))
			}
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Write) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Create) {
		out |= OpCreate
	}
	if op.Has(fsnotify.Remove) {
		out |= OpRemove
	}
	if op.Has(fsnotify.Rename) {
		out |= OpRename
	}
	if op.Has(fsnotify.Chmod) {
		out |= OpChmod
	}
	return out
}
