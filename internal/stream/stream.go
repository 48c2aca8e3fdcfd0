// Package stream implements the Per-File Stream: it owns one file
// watcher and the last-known read offset for a single path, and fans
// out change events to every subscribed client session.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/riverbend/logtail/internal/tail"
	"github.com/riverbend/logtail/internal/watch"
)

// Subscriber is whatever a client session exposes to a Stream: a way to
// push a line, a status notice, or an error notice, without the stream
// package knowing anything about the transport underneath.
type Subscriber interface {
	DeliverLine(path, line string) error
	DeliverStatus(msg string) error
	DeliverError(msg string) error
}

// WatcherFactory acquires a watch.Watcher for a path. Production code
// always passes watch.New; tests substitute a fake so stream lifecycle
// (watcher acquired on first subscriber, released on last) is
// observable without touching the filesystem watch backend.
type WatcherFactory func(path string, poll bool) (watch.Watcher, error)

// Stream is one Per-File Stream: path, offset, subscriber set, and the
// watcher that wakes its read loop.
type Stream struct {
	path      string
	reader    *tail.Reader
	backfillN int

	mu     sync.Mutex
	offset tail.Offset
	subs   map[Subscriber]struct{}

	watcher watch.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// New runs the initialization protocol for a brand new stream: read
// the backfill, acquire a watcher, record the offset, deliver the
// backfill plus a status notice to the first subscriber, then start the
// change-handling loop. If the read or the watcher acquisition fails,
// nothing is delivered and no stream is returned.
func New(path string, reader *tail.Reader, backfillN int, poll bool, factory WatcherFactory, first Subscriber) (*Stream, error) {
	lines, end, err := reader.LastLines(path, backfillN)
	if err != nil {
		return nil, err
	}

	w, err := factory(path, poll)
	if err != nil {
		return nil, err
	}

	s := &Stream{
		path:      path,
		reader:    reader,
		backfillN: backfillN,
		offset:    end,
		subs:      map[Subscriber]struct{}{first: {}},
		watcher:   w,
		done:      make(chan struct{}),
	}

	deliverBackfill(first, path, lines)
	first.DeliverStatus(fmt.Sprintf("Now watching %s", path))

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)

	return s, nil
}

// AddSubscriber runs the additional-subscriber protocol: a fresh
// backfill just for this subscriber, without resetting the stream's
// offset. A late joiner may see a line twice — once in its own
// backfill and again when the next change signal replays everything
// since offset — but nothing is ever skipped.
func (s *Stream) AddSubscriber(sub Subscriber) error {
	s.mu.Lock()
	lines, _, err := s.reader.LastLines(s.path, s.backfillN)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	deliverBackfill(sub, s.path, lines)
	sub.DeliverStatus(fmt.Sprintf("Now watching %s", s.path))
	return nil
}

// RemoveSubscriber drops sub from the subscriber set and reports
// whether the stream is now empty and should be torn down.
func (s *Stream) RemoveSubscriber(sub Subscriber) (empty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, sub)
	return len(s.subs) == 0
}

// Close stops the change-handling loop and releases the watcher. It is
// safe to call once; the registry only calls it when the subscriber
// set has just become empty.
func (s *Stream) Close() {
	s.cancel()
	<-s.done
	s.watcher.Close()
}

func deliverBackfill(sub Subscriber, path string, lines []tail.Line) {
	for _, line := range lines {
		sub.DeliverLine(path, string(line))
	}
}

// run is the per-stream goroutine: it blocks on the watcher's signal
// channel and, on each wake, reads whatever new lines have landed.
// change-handling is serialized through s.mu so offset only ever moves
// forward; transport writes happen after the lock is released so a
// slow subscriber can never block this loop.
func (s *Stream) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-s.watcher.Signal():
			if !ok {
				return
			}
			s.handleChange()
		}
	}
}

func (s *Stream) handleChange() {
	s.mu.Lock()
	lines, newOffset, err := s.reader.LinesSince(s.path, s.offset)
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, tail.ErrNotFound) {
			log.Printf("stream: %s not found during tail, retaining offset", s.path)
		} else {
			log.Printf("stream: read error tailing %s: %v", s.path, err)
		}
		return
	}
	s.offset = newOffset

	subs := make([]Subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, line := range lines {
		for _, sub := range subs {
			if err := sub.DeliverLine(s.path, string(line)); err != nil {
				continue // best-effort: skip this subscriber, keep delivering to others
			}
		}
	}
}
