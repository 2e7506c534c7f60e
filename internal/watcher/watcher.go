// Package watcher feeds an on-disk script file into a compile session
// whenever it changes, so the script can be edited in any external
// editor while the agent runs.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Watcher observes one path and reports content changes.
type Watcher interface {
	Watch(ctx context.Context, path string) error
	OnChange(callback func(path string, text string))
}

// PollWatcher re-stats the file on a fixed interval and reads it when
// the modification time or size moves. Good enough for a single local
// script file; no inotify dependency.
type PollWatcher struct {
	interval time.Duration
	logger   *slog.Logger
	callback func(path string, text string)
}

func NewPollWatcher(interval time.Duration, logger *slog.Logger) *PollWatcher {
	if interval <= 0 {
		interval = time.Second
	}
	return &PollWatcher{interval: interval, logger: logger}
}

func (w *PollWatcher) OnChange(callback func(path string, text string)) {
	w.callback = callback
}

// Watch blocks until ctx is cancelled. The first successful read
// always fires the callback so the session starts from the on-disk
// state.
func (w *PollWatcher) Watch(ctx context.Context, path string) error {
	var lastMod time.Time
	var lastSize int64 = -1

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	check := func() {
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if info.ModTime().Equal(lastMod) && info.Size() == lastSize {
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if w.logger != nil {
				w.logger.Warn("failed to read watched script", "path", path, "error", err)
			}
			return
		}
		lastMod = info.ModTime()
		lastSize = info.Size()
		if w.callback != nil {
			w.callback(path, string(data))
		}
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			check()
		}
	}
}
