// Package dropzone turns files landing in a watched folder into drag-and-drop events.
package dropzone

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yildizm/ScanSight/internal/logger"
)

// DefaultSettleDelay is the quiet period after the last write before a file counts as dropped
const DefaultSettleDelay = 500 * time.Millisecond

// EventKind identifies a drop-zone event
type EventKind int

const (
	// DragOver is emitted when a file starts arriving and nothing else is pending
	DragOver EventKind = iota
	// DragLeave is emitted when every pending file vanished without settling
	DragLeave
	// Drop carries the settled files in arrival order
	Drop
)

func (k EventKind) String() string {
	switch k {
	case DragOver:
		return "drag-over"
	case DragLeave:
		return "drag-leave"
	case Drop:
		return "drop"
	default:
		return "unknown"
	}
}

// Event is delivered on Watcher.Events
type Event struct {
	Kind  EventKind
	Paths []string
}

// Config configures the drop folder watcher
type Config struct {
	Dir         string
	SettleDelay time.Duration
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("drop directory is required")
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle_delay must be non-negative")
	}
	return nil
}

// pending tracks a file that is still being written
type pending struct {
	first    time.Time
	deadline time.Time
}

// Watcher watches a directory and reports files that stop changing.
// Files present before the watcher starts are ignored, as are hidden files.
type Watcher struct {
	dir     string
	settle  time.Duration
	fs      *fsnotify.Watcher
	events  chan Event
	pending map[string]pending
	log     *logger.Logger
}

// New creates a watcher on config.Dir
func New(config *Config, log *logger.Logger) (*Watcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	info, err := os.Stat(config.Dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access drop directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", config.Dir)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(config.Dir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		dir:     config.Dir,
		settle:  config.SettleDelay,
		fs:      fs,
		events:  make(chan Event, 16),
		pending: make(map[string]pending),
		log:     log.WithComponent("dropzone"),
	}, nil
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Events returns the event channel. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run processes filesystem notifications until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(ctx, event, time.Now()) {
				return nil
			}
			w.arm(timer, time.Now())

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Watcher error: %v", err)

		case now := <-timer.C:
			if !w.flush(ctx, now) {
				return nil
			}
			w.arm(timer, time.Now())
		}
	}
}

// Close stops the underlying filesystem watcher
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// handle updates the pending set for one notification; false means ctx ended
func (w *Watcher) handle(ctx context.Context, event fsnotify.Event, now time.Time) bool {
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return true
	}

	switch {
	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		p, exists := w.pending[event.Name]
		if !exists {
			p.first = now
			if len(w.pending) == 0 && !w.emit(ctx, Event{Kind: DragOver}) {
				return false
			}
		}
		p.deadline = now.Add(w.settle)
		w.pending[event.Name] = p

	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		if _, exists := w.pending[event.Name]; !exists {
			return true
		}
		delete(w.pending, event.Name)
		w.log.Debug("Dropped file vanished: %s", event.Name)
		if len(w.pending) == 0 {
			return w.emit(ctx, Event{Kind: DragLeave})
		}
	}
	return true
}

// flush emits every pending file whose deadline passed; false means ctx ended
func (w *Watcher) flush(ctx context.Context, now time.Time) bool {
	type settled struct {
		path  string
		first time.Time
	}
	var ready []settled

	for path, p := range w.pending {
		if p.deadline.After(now) {
			continue
		}
		delete(w.pending, path)

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			w.log.Debug("Ignoring %s: not a regular file", path)
			continue
		}
		ready = append(ready, settled{path: path, first: p.first})
	}

	if len(ready) == 0 {
		if len(w.pending) == 0 {
			return w.emit(ctx, Event{Kind: DragLeave})
		}
		return true
	}

	sort.Slice(ready, func(i, j int) bool {
		if ready[i].first.Equal(ready[j].first) {
			return ready[i].path < ready[j].path
		}
		return ready[i].first.Before(ready[j].first)
	})

	paths := make([]string, len(ready))
	for i, r := range ready {
		paths[i] = r.path
	}

	w.log.InfoWithFields("Files dropped", []logger.Field{logger.Count(len(paths))})
	if !w.emit(ctx, Event{Kind: Drop, Paths: paths}) {
		return false
	}

	// A drop clears the drop target, so files still arriving need a fresh DragOver
	if len(w.pending) > 0 {
		return w.emit(ctx, Event{Kind: DragOver})
	}
	return true
}

// arm resets timer to the earliest pending deadline
func (w *Watcher) arm(timer *time.Timer, now time.Time) {
	if len(w.pending) == 0 {
		timer.Stop()
		return
	}

	var next time.Time
	for _, p := range w.pending {
		if next.IsZero() || p.deadline.Before(next) {
			next = p.deadline
		}
	}

	delay := next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	timer.Reset(delay)
}

func (w *Watcher) emit(ctx context.Context, event Event) bool {
	select {
	case w.events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
