package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tillrd/lufalyze/logging"
)

// settleDelay is how long a file must go without writes before it is
// analysed.
const settleDelay = 500 * time.Millisecond

// watch analyses audio files created or rewritten in dir until ctx ends.
func (a *app) watch(ctx context.Context, dir string) error {
	logger := logging.WithFields(logging.Fields{"component": "watcher", "dir": dir})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("Watching for audio files")

	jobs := make(chan string, 16)
	s := newSettler(settleDelay, func(name string) {
		select {
		case jobs <- name:
		case <-ctx.Done():
		}
	})
	defer s.stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && a.decoder.IsAudioFile(event.Name) {
				s.touch(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", logging.Fields{"error": err.Error()})

		case name := <-jobs:
			if err := a.analyzeFile(ctx, name); err != nil {
				logger.Error(err, "Analysis failed", logging.Fields{"file": name})
			}
		}
	}
}

// settler fires fn once per name after the name has been quiet for delay.
type settler struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*time.Timer
	fn     func(string)
}

func newSettler(delay time.Duration, fn func(string)) *settler {
	return &settler{delay: delay, timers: make(map[string]*time.Timer), fn: fn}
}

func (s *settler) touch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[name]; ok {
		t.Reset(s.delay)
		return
	}
	s.timers[name] = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		delete(s.timers, name)
		s.mu.Unlock()
		s.fn(name)
	})
}

func (s *settler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
}
