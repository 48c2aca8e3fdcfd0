// Package registry is the single coordinator of the client/file
// subscription graph: it maps paths to Per-File Streams and sessions
// to their watched paths, creating and tearing down streams by
// reference count.
package registry

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/riverbend/logtail/internal/stream"
	"github.com/riverbend/logtail/internal/tail"
	"github.com/riverbend/logtail/internal/watch"
)

// Registry owns the path -> Stream map and the session -> watched-paths
// map. Both mutate together under a single mutex: attach, detach, and
// disconnect are each atomic with respect to it. The mutex is held
// across a new stream's backfill read and watcher acquisition, which
// trades the "registry mutations never block" ideal for a simple
// guarantee that two concurrent attaches for the same brand-new path
// can never race into creating two streams.
type Registry struct {
	mu       sync.Mutex
	streams  map[string]*stream.Stream
	sessions map[stream.Subscriber]map[string]struct{}

	reader    *tail.Reader
	backfillN int
	poll      bool
	factory   stream.WatcherFactory
}

// New returns an empty Registry. backfillN is the attach-time backfill
// window (the default is 10 lines); poll selects the polling watch
// fallback for every stream the registry creates.
func New(backfillN int, poll bool) *Registry {
	return &Registry{
		streams:   make(map[string]*stream.Stream),
		sessions:  make(map[stream.Subscriber]map[string]struct{}),
		reader:    tail.NewReader(),
		backfillN: backfillN,
		poll:      poll,
		factory:   watch.New,
	}
}

// Attach subscribes sub to path, creating a Per-File Stream if none
// exists yet. Errors are delivered to sub as an error notice; no state
// change occurs on failure.
func (r *Registry) Attach(sub stream.Subscriber, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if st, ok := r.streams[path]; ok {
		if err := st.AddSubscriber(sub); err != nil {
			if !errors.Is(err, tail.ErrNotFound) {
				log.Printf("registry: backfill read failed for %s: %v", path, err)
			}
			sub.DeliverError(attachErrorMessage(err, path))
			return
		}
		r.recordWatch(sub, path)
		return
	}

	st, err := stream.New(path, r.reader, r.backfillN, r.poll, r.factory, sub)
	if err != nil {
		if !errors.Is(err, tail.ErrNotFound) && !errors.Is(err, watch.ErrWatchUnavailable) {
			log.Printf("registry: attach failed for %s: %v", path, err)
		}
		sub.DeliverError(attachErrorMessage(err, path))
		return
	}
	r.streams[path] = st
	r.recordWatch(sub, path)
}

// Detach unsubscribes sub from path. It is a no-op if sub was not
// subscribed to path.
func (r *Registry) Detach(sub stream.Subscriber, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.detachLocked(sub, path)
}

// Disconnect tears down every subscription sub holds, as if Detach had
// been called for each of its watched paths, then forgets sub
// entirely.
func (r *Registry) Disconnect(sub stream.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path := range r.sessions[sub] {
		r.detachLocked(sub, path)
	}
	delete(r.sessions, sub)
}

// Shutdown cancels every stream's watcher and forgets every session,
// without sending any further notices. Idempotent: calling it on an
// already-empty registry is a no-op.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, st := range r.streams {
		st.Close()
		delete(r.streams, path)
	}
	for sub := range r.sessions {
		delete(r.sessions, sub)
	}
}

// detachLocked assumes r.mu is held.
func (r *Registry) detachLocked(sub stream.Subscriber, path string) {
	st, ok := r.streams[path]
	if !ok {
		return
	}
	if empty := st.RemoveSubscriber(sub); empty {
		delete(r.streams, path)
		st.Close()
	}
	if paths, ok := r.sessions[sub]; ok {
		delete(paths, path)
		if len(paths) == 0 {
			delete(r.sessions, sub)
		}
	}
}

func (r *Registry) recordWatch(sub stream.Subscriber, path string) {
	paths, ok := r.sessions[sub]
	if !ok {
		paths = make(map[string]struct{})
		r.sessions[sub] = paths
	}
	paths[path] = struct{}{}
}

func attachErrorMessage(err error, path string) string {
	switch {
	case errors.Is(err, tail.ErrNotFound):
		return fmt.Sprintf("File not found: %s", path)
	case errors.Is(err, watch.ErrNotFound):
		return fmt.Sprintf("File not found: %s", path)
	case errors.Is(err, watch.ErrWatchUnavailable):
		return fmt.Sprintf("Unable to watch file: %s", path)
	default:
		return fmt.Sprintf("Unable to watch file: %s", path)
	}
}
