package watch

import (
	"log"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// fsnotifyWatcher coalesces native filesystem events into a single
// non-blocking signal channel: if the channel is already full, the
// event is dropped rather than blocking the fsnotify event loop.
type fsnotifyWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	signal   chan struct{}
	done     chan struct{}
	closeErr error
	once     sync.Once
}

func newFsnotifyWatcher(path string) (*fsnotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ErrWatchUnavailable
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, ErrWatchUnavailable
	}

	fw := &fsnotifyWatcher{
		watcher: w,
		path:    path,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

func (w *fsnotifyWatcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod) != 0:
				w.wake()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// File rotation/truncation is out of scope; surface as a
				// wake so the stream's next read observes whatever
				// linesSince/NotFound reports.
				w.wake()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: fsnotify error for %s: %v", w.path, err)

		case <-w.done:
			return
		}
	}
}

func (w *fsnotifyWatcher) wake() {
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *fsnotifyWatcher) Signal() <-chan struct{} {
	return w.signal
}

func (w *fsnotifyWatcher) Close() error {
	w.once.Do(func() {
		close(w.done)
		w.closeErr = w.watcher.Close()
	})
	return w.closeErr
}
