// Package watcher watches a directory for specific files being created or
// written and emits a debounced signal.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/codepad/internal/log"
)

// Watcher monitors one directory for changes to a set of file names.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dir       string
	debounce  time.Duration
	match     func(name string) bool
	onChange  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	// Dir is the directory to watch.
	Dir string
	// Names restricts notifications to these base names. Empty means any file.
	Names []string
	// DebounceDur is the quiet period before a notification is sent.
	DebounceDur time.Duration
}

// DefaultConfig watches dir for any of names with a short debounce.
func DefaultConfig(dir string, names ...string) Config {
	return Config{
		Dir:         dir,
		Names:       names,
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a watcher. Call Start to begin receiving events.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	wanted := make(map[string]struct{}, len(cfg.Names))
	for _, n := range cfg.Names {
		wanted[n] = struct{}{}
	}

	return &Watcher{
		fsWatcher: fsw,
		dir:       cfg.Dir,
		debounce:  cfg.DebounceDur,
		match: func(name string) bool {
			if len(wanted) == 0 {
				return true
			}
			_, ok := wanted[name]
			return ok
		},
		onChange: make(chan struct{}, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives a signal after each
// debounced burst of relevant events.
func (w *Watcher) Start() (<-chan struct{}, error) {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", w.dir, err)
	}
	log.Debug(log.CatWatcher, "watching", "dir", w.dir)

	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. Safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
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
			timerC = timer.C
			pending = true

		case <-timerC:
			timerC = nil
			if pending {
				select {
				case w.onChange <- struct{}{}:
				default:
				}
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "dir", w.dir)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent reports whether event is a create or write of a watched name.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	return w.match(filepath.Base(event.Name))
}

// Nudges watches dir for name and returns the signal channel plus a stop
// function. It fits compile.NudgeSource.
func Nudges(dir, name string) (<-chan struct{}, func(), error) {
	cfg := DefaultConfig(dir, name)
	cfg.DebounceDur = 50 * time.Millisecond

	w, err := New(cfg)
	if err != nil {
		return nil, nil, err
	}
	ch, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, nil, err
	}
	return ch, func() { _ = w.Stop() }, nil
}
