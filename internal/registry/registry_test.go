package registry

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSession struct {
	mu       sync.Mutex
	lines    []string
	statuses []string
	errs     []string
}

func (f *fakeSession) DeliverLine(path, line string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeSession) DeliverStatus(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, msg)
	return nil
}

func (f *fakeSession) DeliverError(msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, msg)
	return nil
}

func (f *fakeSession) snapshot() (lines, statuses, errs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...),
		append([]string(nil), f.statuses...),
		append([]string(nil), f.errs...)
}

func writeFixture(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestAttach_NewPath_BackfillThenStatus(t *testing.T) {
	path := writeFixture(t, strings.Repeat("line\n", 15))
	r := New(10, false)
	s1 := &fakeSession{}

	r.Attach(s1, path)

	lines, statuses, errs := s1.snapshot()
	if len(lines) != 10 {
		t.Fatalf("got %d backfill lines, want 10", len(lines))
	}
	if len(statuses) != 1 || !strings.Contains(statuses[0], "Now watching") {
		t.Fatalf("statuses = %v, want one containing 'Now watching'", statuses)
	}
	if len(errs) != 0 {
		t.Fatalf("errs = %v, want none", errs)
	}
}

func TestAttach_MissingFile_DeliversNotFoundError(t *testing.T) {
	r := New(10, false)
	s2 := &fakeSession{}

	missing := filepath.Join(t.TempDir(), "gone.log")
	r.Attach(s2, missing)

	lines, statuses, errs := s2.snapshot()
	if len(lines) != 0 || len(statuses) != 0 {
		t.Fatalf("expected no lines/status on not-found, got lines=%v statuses=%v", lines, statuses)
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "File not found") {
		t.Fatalf("errs = %v, want one containing 'File not found'", errs)
	}
}

func TestDisconnect_ReleasesLastSubscriberWatcher(t *testing.T) {
	path := writeFixture(t, "a\n")
	r := New(10, true) // poll watcher: no OS-level watch handle to leak either way
	s1 := &fakeSession{}

	r.Attach(s1, path)
	if _, ok := r.streams[path]; !ok {
		t.Fatal("expected stream to exist after attach")
	}

	r.Disconnect(s1)

	if _, ok := r.streams[path]; ok {
		t.Fatal("expected stream to be torn down after sole subscriber disconnected")
	}
	if _, ok := r.sessions[s1]; ok {
		t.Fatal("expected session to be forgotten after disconnect")
	}
}

func TestDetach_IdempotentWhenNotSubscribed(t *testing.T) {
	r := New(10, false)
	s1 := &fakeSession{}
	// Never attached anywhere.
	r.Detach(s1, "/nowhere")
}

func TestDetach_SubscriberIsolation(t *testing.T) {
	path := writeFixture(t, "a\n")
	r := New(10, false)
	s1 := &fakeSession{}
	s2 := &fakeSession{}

	r.Attach(s1, path)
	r.Attach(s2, path)

	r.Detach(s1, path)
	if _, ok := r.streams[path]; !ok {
		t.Fatal("stream should survive while s2 is still subscribed")
	}

	r.Detach(s2, path)
	if _, ok := r.streams[path]; ok {
		t.Fatal("stream should be torn down once both subscribers depart")
	}
}

func TestAttach_SecondSubscriberGetsOwnBackfill(t *testing.T) {
	path := writeFixture(t, "a\nb\n")
	r := New(10, true)
	s1 := &fakeSession{}
	r.Attach(s1, path)

	time.Sleep(20 * time.Millisecond) // let the stream settle

	s2 := &fakeSession{}
	r.Attach(s2, path)

	lines, _, _ := s2.snapshot()
	if len(lines) != 2 {
		t.Fatalf("second subscriber backfill = %v, want [a b]", lines)
	}
}
