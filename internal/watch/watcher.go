// Package watch reports changes to the Markdown files of the docs directory.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes to the same file.
const DefaultDebounce = 100 * time.Millisecond

// EventCallback is called once per settled file change.
// kind is one of "created", "updated", "deleted".
type EventCallback func(kind string, name string)

// Watch starts an fsnotify watcher on dir and reports .md changes until ctx
// is cancelled. Subdirectories are not watched. A missing directory is
// logged and Watch returns nil.
func Watch(ctx context.Context, dir string, debounce time.Duration, logger *slog.Logger, cb EventCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		logger.Warn("watcher: docs dir missing, not watching", slog.String("dir", dir))
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("dir", dir))

	var (
		mu      sync.Mutex
		pending = make(map[string]string)
		timers  = make(map[string]*time.Timer)
	)

	settle := func(name, kind string) {
		mu.Lock()
		defer mu.Unlock()
		// A create followed by writes is still a create.
		if prev, ok := pending[name]; !(ok && prev == "created" && kind == "updated") {
			pending[name] = kind
		}
		if t, ok := timers[name]; ok {
			t.Reset(debounce)
			return
		}
		timers[name] = time.AfterFunc(debounce, func() {
			mu.Lock()
			k := pending[name]
			delete(pending, name)
			delete(timers, name)
			mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			logger.Debug("watcher: changed", slog.String("name", name), slog.String("op", k))
			if cb != nil {
				cb(k, name)
			}
		})
	}

	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(dir) || !strings.HasSuffix(name, ".md") {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				settle(name, "created")
			case ev.Op&fsnotify.Write != 0:
				settle(name, "updated")
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// fsnotify fires Rename on the old path only; the new
				// path arrives as a separate Create.
				settle(name, "deleted")
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
