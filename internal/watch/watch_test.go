package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_NotFound(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.log"), false)
	if err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFsnotifyWatcher_SignalsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	if err := os.WriteFile(path, []byte("a\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	w, err := New(path, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open for append: %v", err)
	}
	if _, err := f.WriteString("b\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	select {
	case <-w.Signal():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change signal")
	}
}

func TestPollWatcher_SignalsPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	os.WriteFile(path, []byte(""), 0o644)

	w, err := New(path, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	select {
	case <-w.Signal():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poll signal")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	os.WriteFile(path, []byte(""), 0o644)

	w, err := New(path, false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
