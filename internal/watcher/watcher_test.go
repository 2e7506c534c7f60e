package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPollWatcher_FiresOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.cut")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	changes := make(chan string, 4)
	w := NewPollWatcher(10*time.Millisecond, nil)
	w.OnChange(func(_ string, text string) { changes <- text })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, path) }()

	// The first read fires immediately with the current content.
	select {
	case got := <-changes:
		if got != "v1" {
			t.Errorf("initial content = %q, want v1", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("initial read never fired")
	}

	// A rewrite with different size is picked up on the next poll even
	// when the filesystem's mtime granularity eats the timestamp change.
	if err := os.WriteFile(path, []byte("v2 longer"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-changes:
		if got != "v2 longer" {
			t.Errorf("changed content = %q, want %q", got, "v2 longer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change never fired")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Watch() returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}

func TestPollWatcher_MissingFileDoesNotFire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.cut")

	changes := make(chan string, 1)
	w := NewPollWatcher(10*time.Millisecond, nil)
	w.OnChange(func(_ string, text string) { changes <- text })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	w.Watch(ctx, path)

	select {
	case got := <-changes:
		t.Errorf("callback fired for missing file with %q", got)
	default:
	}
}

func TestNewPollWatcher_DefaultInterval(t *testing.T) {
	w := NewPollWatcher(0, nil)
	if w.interval != time.Second {
		t.Errorf("interval = %v, want 1s", w.interval)
	}
}
