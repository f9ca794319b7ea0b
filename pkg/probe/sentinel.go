package probe

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/aretw0/furrow/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Sentinel reports whether a marker file exists. With Watch running it
// answers from filesystem notifications; otherwise it stats the file.
type Sentinel struct {
	path    string
	logger  *slog.Logger
	present atomic.Bool
	watched atomic.Bool
}

// NewSentinel creates a sentinel for path. A nil logger discards output.
func NewSentinel(path string, logger *slog.Logger) *Sentinel {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sentinel{path: filepath.Clean(path), logger: logger}
}

// Path returns the watched file path.
func (s *Sentinel) Path() string { return s.path }

// Present reports whether the marker file exists.
func (s *Sentinel) Present() bool {
	if s.watched.Load() {
		return s.present.Load()
	}
	return s.stat()
}

func (s *Sentinel) stat() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Watch follows the marker file through its parent directory until ctx ends.
// It returns once the watch is established; events are handled in the
// background. On error the sentinel keeps answering with os.Stat.
func (s *Sentinel) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}

	s.present.Store(s.stat())
	s.watched.Store(true)
	s.logger.Debug("watching heartbeat sentinel", "path", s.path)

	go func() {
		defer func() {
			s.watched.Store(false)
			w.Close()
		}()
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				s.handle(event)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				if errors.Is(err, fsnotify.ErrEventOverflow) {
					s.present.Store(s.stat())
				}
				s.logger.Warn("sentinel watcher error", "err", err)

			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Sentinel) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != s.path {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		s.present.Store(true)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		s.present.Store(false)
	}
}
