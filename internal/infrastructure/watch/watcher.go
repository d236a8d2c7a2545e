package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change is the kind of filesystem change reported for a path.
type Change string

const (
	ChangeCreate Change = "create"
	ChangeWrite  Change = "write"
	ChangeRemove Change = "remove"
	ChangeRename Change = "rename"
)

// ChangeEvent is the last change seen for a path within one quiet period.
type ChangeEvent struct {
	Path       string
	ChangeType Change
}

// imports reports whether the change leaves a readable file behind.
func (e ChangeEvent) imports() bool {
	return e.ChangeType == ChangeCreate || e.ChangeType == ChangeWrite
}

// FSWatcher watches a directory tree and reports every changed file once
// per quiet period.
type FSWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	filter   *PatternFilter
	onChange func(context.Context, ChangeEvent)

	mu      sync.Mutex
	pending map[string]ChangeEvent
}

// NewFSWatcher creates a watcher. A nil filter reports every file.
func NewFSWatcher(debounce time.Duration, filter *PatternFilter, onChange func(context.Context, ChangeEvent)) (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}
	return &FSWatcher{
		watcher:  w,
		debounce: debounce,
		filter:   filter,
		onChange: onChange,
		pending:  make(map[string]ChangeEvent),
	}, nil
}

// WatchRecursive registers root and every directory below it. Hidden
// directories such as .riskaudit are skipped, unreadable ones ignored.
func (w *FSWatcher) WatchRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		switch {
		case err != nil, !d.IsDir():
			return nil
		case path != root && strings.HasPrefix(d.Name(), "."):
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run starts the event loop. It blocks until the context is cancelled.
func (w *FSWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.debounce, func() { w.flush(ctx) })
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				debouncer.Flush()
				return nil
			}
			change := changeOf(event.Op)
			if change == "" {
				continue
			}

			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.WatchRecursive(event.Name)
					continue
				}
			}
			if !w.filter.Matches(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = ChangeEvent{Path: event.Name, ChangeType: change}
			w.mu.Unlock()
			debouncer.Trigger()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher error: %w", err)
		}
	}
}

// flush hands every pending change to onChange in path order.
func (w *FSWatcher) flush(ctx context.Context) {
	w.mu.Lock()
	batch := make([]ChangeEvent, 0, len(w.pending))
	for _, ev := range w.pending {
		batch = append(batch, ev)
	}
	w.pending = make(map[string]ChangeEvent)
	w.mu.Unlock()

	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	if w.onChange == nil {
		return
	}
	for _, ev := range batch {
		if ctx.Err() != nil {
			return
		}
		w.onChange(ctx, ev)
	}
}

func changeOf(op fsnotify.Op) Change {
	switch {
	case op.Has(fsnotify.Create):
		return ChangeCreate
	case op.Has(fsnotify.Write):
		return ChangeWrite
	case op.Has(fsnotify.Remove):
		return ChangeRemove
	case op.Has(fsnotify.Rename):
		return ChangeRename
	}
	return ""
}
