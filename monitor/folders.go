package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"autoexec/activity"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
)

// ErrClosed is returned by Restart after Close
var ErrClosed = errors.New("folder watcher is closed")

// DefaultDelay lets a copy or delete settle before the folders are re-scanned
const DefaultDelay = 100 * time.Millisecond

// Watcher observes the scripts and autoexec folders and requests a re-scan
// whenever a tracked file is created, removed or renamed.
// It never touches engine or UI state; consumers read Rescans and marshal
// the work onto their own event loop.
type Watcher struct {
	ext     string
	delay   time.Duration
	log     *activity.Log
	rescans chan struct{}

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	watched []string
	closed  bool
}

// NewWatcher creates a stopped watcher for files ending with ext
func NewWatcher(ext string, delay time.Duration, activityLog *activity.Log) *Watcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if activityLog == nil {
		activityLog = activity.New(nil)
	}
	return &Watcher{
		ext:     ext,
		delay:   delay,
		log:     activityLog,
		rescans: make(chan struct{}, 1),
	}
}

// Rescans delivers coalesced re-scan requests. The channel survives restarts
// and is closed by Close.
func (w *Watcher) Rescans() <-chan struct{} {
	return w.rescans
}

// Watched returns the directories currently observed
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.watched...)
}

// Restart stops the current watch and observes dirs instead.
// Directories that do not exist are skipped. When Restart returns, no request
// originating from the previous directory set will be delivered.
func (w *Watcher) Restart(dirs ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.stopLocked()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create folder watcher")
	}

	var watched []string
	seen := map[string]bool{}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true

		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			w.log.Debug("Skipping watch on missing folder", "path", dir)
			continue
		}
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("Failed to watch folder", "path", dir, "error", err)
			continue
		}
		watched = append(watched, dir)
	}

	done := make(chan struct{})
	w.fsw = fsw
	w.done = done
	w.watched = watched

	w.wg.Add(1)
	go w.run(fsw, done)

	return nil
}

// Stop ends the watch and discards any pending request. It is safe to call repeatedly.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

// Close stops the watch and closes Rescans so consumers can exit.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
	if !w.closed {
		w.closed = true
		close(w.rescans)
	}
}

func (w *Watcher) stopLocked() {
	if w.fsw == nil {
		return
	}

	close(w.done)
	w.wg.Wait()
	if err := w.fsw.Close(); err != nil {
		w.log.Debug("Failed to close folder watcher", "error", err)
	}
	w.fsw = nil
	w.done = nil
	w.watched = nil

	// Drop a request the old watch set already queued
	select {
	case <-w.rescans:
	default:
	}
}

func (w *Watcher) run(fsw *fsnotify.Watcher, done <-chan struct{}) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Folder watch error", "error", err)
		case <-fire:
			fire = nil
			select {
			case w.rescans <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if !strings.HasSuffix(filepath.Base(event.Name), w.ext) {
		return false
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			return false
		}
	}
	return true
}
