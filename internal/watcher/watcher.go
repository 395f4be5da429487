// Package watcher reloads the edited source file when it changes on disk.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/zjrosen/stupidea/internal/log"
	"github.com/zjrosen/stupidea/internal/pubsub"
)

// Change describes the file's new content.
type Change struct {
	Path    string
	Text    string
	Added   int
	Removed int
}

// Summary renders the change for a status line, e.g. "main.stupid +2 -1".
func (c Change) Summary() string {
	return fmt.Sprintf("%s +%d -%d", filepath.Base(c.Path), c.Added, c.Removed)
}

// Config holds watcher configuration options.
type Config struct {
	Path        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(path string) Config {
	return Config{Path: path, DebounceDur: 200 * time.Millisecond}
}

// Watcher publishes a ChangedEvent whenever the file's content differs from
// what it last saw, and a RemovedEvent when the file disappears.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	path      string
	debounce  time.Duration
	broker    *pubsub.Broker[Change]
	done      chan struct{}
	stopOnce  sync.Once

	mu   sync.Mutex
	last string
}

// New creates a watcher for cfg.Path. initial is the content the caller
// already has, so an unchanged file produces no event.
func New(cfg Config, initial string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	return &Watcher{
		fsWatcher: fsw,
		path:      filepath.Clean(cfg.Path),
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBroker[Change](),
		done:      make(chan struct{}),
		last:      initial,
	}, nil
}

// Subscribe returns a channel of changes for the lifetime of ctx.
func (w *Watcher) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return w.broker.Subscribe(ctx)
}

// Broker exposes the change broker for tea listeners.
func (w *Watcher) Broker() pubsub.Subscriber[Change] {
	return w.broker
}

// Start begins watching the file's directory. Editors often replace files
// by rename, so the directory is watched rather than the file.
func (w *Watcher) Start() error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	log.Debug(log.CatWatcher, "watching", "path", w.path)
	go w.loop()
	return nil
}

// Sync records text as the current content, e.g. after the editor saved it.
func (w *Watcher) Sync(text string) {
	w.mu.Lock()
	w.last = text
	w.mu.Unlock()
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.broker.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.check()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warn(log.CatWatcher, "watch error", "error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) check() {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info(log.CatWatcher, "file removed", "path", w.path)
		w.broker.Publish(pubsub.RemovedEvent, Change{Path: w.path})
		return
	}
	if err != nil {
		log.Warn(log.CatWatcher, "reading changed file", "path", w.path, "error", err)
		return
	}

	text := string(data)
	w.mu.Lock()
	old := w.last
	if text == old {
		w.mu.Unlock()
		return
	}
	w.last = text
	w.mu.Unlock()

	added, removed := DiffStats(old, text)
	c := Change{Path: w.path, Text: text, Added: added, Removed: removed}
	log.Info(log.CatWatcher, "file changed on disk", "change", c.Summary())
	w.broker.Publish(pubsub.ChangedEvent, c)
}

// DiffStats counts added and removed lines between a and b.
func DiffStats(a, b string) (added, removed int) {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	for _, d := range diffs {
		n := countLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
