// Package watch dispatches a ReloadOptionsAction whenever a
// storeconfig-backed configuration file changes on disk, using
// github.com/fsnotify/fsnotify the way the teacher's file-driven reload
// flow (reload_orchestrator.go, modules/configwatcher) watches config
// files. A Watcher is an external action producer like any other caller:
// it calls store.Dispatch and otherwise has no special access to the
// dispatch loop.
package watch

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/corestore/corestore"
	"github.com/corestore/corestore/storeconfig"
)

// ReloadOptionsAction is dispatched whenever the watched configuration
// file changes and re-parses successfully. Reducers that want to react to
// live configuration changes (adjusting their own behavior, re-registering
// combine.New children, etc.) can handle it like any other action.
type ReloadOptionsAction struct {
	corestore.BaseAction
	Options storeconfig.Options
}

// Watcher watches a single configuration file and dispatches
// ReloadOptionsAction against store whenever it is written.
type Watcher struct {
	path   string
	feeder storeconfig.Feeder
	store  *corestore.Store
	logger corestore.Logger

	fsw  *fsnotify.Watcher
	wg   sync.WaitGroup
	done chan struct{}
}

// New builds a Watcher for path, re-reading it through feeder on every
// write and dispatching the result against store.
func New(path string, feeder storeconfig.Feeder, store *corestore.Store, logger corestore.Logger) (*Watcher, error) {
	if logger == nil {
		logger = corestore.NopLogger{}
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: creating fsnotify watcher: %w", err)
	}
	// fsnotify on some platforms only reliably reports events on the
	// containing directory for editors that replace-on-save; watching the
	// directory and filtering by name handles both cases.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch: watching %q: %w", path, err)
	}
	return &Watcher{
		path:   path,
		feeder: feeder,
		store:  store,
		logger: logger,
		fsw:    fsw,
		done:   make(chan struct{}),
	}, nil
}

// Start begins watching in the background. It returns immediately.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	opts, err := storeconfig.Load(w.feeder)
	if err != nil {
		w.logger.Warn("watch: failed to reload config, keeping previous options", "path", w.path, "error", err)
		return
	}
	if err := w.store.Dispatch(ReloadOptionsAction{Options: opts}); err != nil {
		w.logger.Error("watch: dispatching reloaded options failed", "error", err)
	}
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
