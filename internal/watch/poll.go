package watch

import (
	"sync"
	"time"
)

// pollInterval is the fixed tick rate for the polling fallback, used
// as the sole notification source rather than alongside fsnotify.
const pollInterval = 250 * time.Millisecond

// pollWatcher emits a signal on a fixed interval, for filesystems where
// native change notification is unavailable. The coalescing contract
// still holds: the consumer verifies by reading, so an unnecessary tick
// costs nothing but an empty linesSince call.
type pollWatcher struct {
	signal chan struct{}
	done   chan struct{}
	once   sync.Once
}

func newPollWatcher(path string) *pollWatcher {
	w := &pollWatcher{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *pollWatcher) loop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case w.signal <- struct{}{}:
			default:
			}
		case <-w.done:
			return
		}
	}
}

func (w *pollWatcher) Signal() <-chan struct{} {
	return w.signal
}

func (w *pollWatcher) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}
