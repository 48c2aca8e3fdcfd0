// Package watch observes log files for append/modify activity and
// emits opaque, coalesceable "something changed" signals.
package watch

import (
	"errors"
	"os"
)

// ErrWatchUnavailable indicates the watch backend could not be
// acquired (e.g. the native watcher's resource limit is exhausted).
var ErrWatchUnavailable = errors.New("watch: backend unavailable")

// ErrNotFound indicates the path does not exist.
var ErrNotFound = errors.New("watch: file not found")

// Watcher observes a single path for changes. Signal carries no
// payload: it is a coalesceable wake-up telling the consumer to go
// re-read the file. Close is idempotent.
type Watcher interface {
	Signal() <-chan struct{}
	Close() error
}

// New acquires a Watcher for path. When poll is true, the polling
// fallback is used instead of the native backend. If the native backend
// cannot be acquired, New returns ErrWatchUnavailable; it does not
// switch to polling on its own.
func New(path string, poll bool) (Watcher, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, ErrWatchUnavailable
	}
	if poll {
		return newPollWatcher(path), nil
	}
	w, err := newFsnotifyWatcher(path)
	if err != nil {
		return nil, err
	}
	return w, nil
}
