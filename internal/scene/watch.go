package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/inkboard/backend/internal/storage"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// Reload loads path into h. A broken file leaves the current scene in place.
func Reload(h *Holder, path string, store storage.PresetStore, log *zap.Logger) error {
	sc, err := Load(path, store, log)
	if err != nil {
		return err
	}
	h.Store(sc)
	log.Info("Scene loaded", zap.String("file", path), zap.Int("sections", len(sc.Sections)))
	return nil
}

// Watch reloads the scene whenever path changes on disk, until ctx is
// done. The parent directory is watched so files replaced by rename are
// picked up too.
func Watch(ctx context.Context, h *Holder, path string, store storage.PresetStore, log *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating scene watcher: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		defer watcher.Close()
		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				pending = time.After(reloadDebounce)
			case <-pending:
				pending = nil
				if err := Reload(h, abs, store, log); err != nil {
					log.Warn("Scene reload failed, keeping previous scene", zap.Error(err))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("Scene watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}
