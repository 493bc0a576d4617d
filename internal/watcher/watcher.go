// Package watcher keeps the index current while a project is being edited.
// It watches the project tree recursively and feeds debounced change events
// into the indexer's single-file paths.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raglite/raglite/internal/indexer"
	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/internal/processor"
)

// Editors save files with bursts of writes; one reindex per burst is enough.
const defaultDebounce = 500 * time.Millisecond

// Watcher wires fsnotify events to index updates.
type Watcher struct {
	proc     *processor.Processor
	indexer  *indexer.Indexer
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New creates a Watcher over the processor's project root.
func New(proc *processor.Processor, ix *indexer.Indexer) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		proc:     proc,
		indexer:  ix,
		fsw:      fsw,
		debounce: defaultDebounce,
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Start watches the tree until the context is canceled. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	defer func() { _ = w.fsw.Close() }()

	if err := w.addRecursive(w.proc.Root()); err != nil {
		return err
	}
	logger.Info("watching %s for changes", w.proc.Root())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// addRecursive registers every non-hidden directory under root. fsnotify
// watches are not recursive on their own.
func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(info.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Debug("cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	relPath, err := filepath.Rel(w.proc.Root(), event.Name)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return
	}

	// New directories need their own watch before events inside them fire.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(info.Name(), ".") {
				_ = w.addRecursive(event.Name)
			}
			return
		}
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.schedule(relPath, func() {
			if err := w.indexer.RemoveFile(ctx, relPath); err != nil {
				logger.Warn("remove %s from index: %v", relPath, err)
			} else {
				logger.Debug("removed %s after delete", relPath)
			}
		})
	case event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create):
		w.schedule(relPath, func() {
			if err := w.indexer.IndexFile(ctx, relPath); err != nil {
				logger.Warn("reindex %s: %v", relPath, err)
			} else {
				logger.Debug("reindexed %s after change", relPath)
			}
		})
	}
}

// schedule runs fn after the debounce window, collapsing earlier pending
// runs for the same path.
func (w *Watcher) schedule(relPath string, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[relPath]; ok {
		t.Stop()
	}
	w.timers[relPath] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, relPath)
		w.mu.Unlock()
		fn()
	})
}
