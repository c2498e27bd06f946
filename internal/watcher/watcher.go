// Package watcher delivers file-system change notifications for the e-defter
// root to an automation handler. fsnotify is not recursive, so every folder
// below the root is added on start and as it appears.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"edefter/internal/events"
	"edefter/internal/ledger"
	"edefter/internal/logger"
)

// Handler receives raw change notifications. It must not block.
type Handler interface {
	HandleEvent(ctx context.Context, op, path string)
}

// Watcher watches one root folder recursively.
type Watcher struct {
	root     string
	handler  Handler
	observer events.Observer
	log      zerolog.Logger

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher for root that passes file changes to handler.
// A nil observer discards lifecycle events.
func New(root string, handler Handler, observer events.Observer) *Watcher {
	if observer == nil {
		observer = events.Discard
	}
	return &Watcher{
		root:     root,
		handler:  handler,
		observer: observer,
		log:      logger.WithComponent("watcher"),
	}
}

// Start begins watching. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	const op = "Start"

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.fsw != nil {
		return nil
	}

	info, err := os.Stat(w.root)
	if errors.Is(err, fs.ErrNotExist) {
		return ledger.WrapScanError(op, w.root, ledger.ErrSourceNotFound)
	}
	if err != nil {
		return ledger.WrapScanError(op, w.root, err)
	}
	if !info.IsDir() {
		return ledger.WrapScanError(op, w.root, ledger.ErrNotDirectory)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%s: failed to create watcher: %w", op, err)
	}
	if err := addTree(fsw, w.root); err != nil {
		fsw.Close()
		return ledger.WrapScanError(op, w.root, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	w.fsw, w.cancel, w.done = fsw, cancel, make(chan struct{})
	go w.loop(ctx, fsw, w.done)

	w.log.Info().Str("source", w.root).Int("folders", len(fsw.WatchList())).Msg("File watcher started")
	w.observer.Notify(events.Event{Type: events.WatcherStarted, Path: w.root})
	return nil
}

// Stop ends watching and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	fsw, cancel, done := w.fsw, w.cancel, w.done
	w.fsw, w.cancel, w.done = nil, nil, nil
	w.mu.Unlock()

	if fsw == nil {
		return
	}
	cancel()
	fsw.Close()
	<-done

	w.log.Info().Msg("File watcher stopped")
	w.observer.Notify(events.Event{Type: events.WatcherStopped, Path: w.root})
}

// IsWatching reports whether the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fsw != nil
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.dispatch(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Error().Err(err).Msg("Watch error")
			w.observer.Notify(events.Event{Type: events.Error, Path: w.root, Err: err,
				Message: "Klasör izleme hatası"})
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}

	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := addTree(fsw, ev.Name); err != nil {
				w.log.Warn().Err(err).Str("path", ev.Name).Msg("Failed to watch new folder")
			}
			// Files written before the folder was added produce no events.
			w.replay(ctx, ev.Name)
			return
		}
	}

	w.handler.HandleEvent(ctx, ev.Op.String(), ev.Name)
}

func (w *Watcher) replay(ctx context.Context, dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			w.handler.HandleEvent(ctx, fsnotify.Create.String(), path)
		}
		return nil
	})
}

func addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path != root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}
