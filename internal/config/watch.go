package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"go.trai.ch/zerr"

	appLog "chorecal/internal/log"
)

// reloadDebounce absorbs the burst of events editors emit for one save.
const reloadDebounce = 250 * time.Millisecond

// Watch calls fn with the reloaded config each time the file at path changes
// content. Files that fail to parse are logged and skipped. Watch blocks
// until ctx is done.
func Watch(ctx context.Context, path string, fn func(*Config)) error {
	dir := filepath.Dir(path)
	file := filepath.Base(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return zerr.Wrap(err, "create config watcher")
	}
	defer w.Close()

	// Watch the directory: editors often replace the file via rename.
	if err := w.Add(dir); err != nil {
		return zerr.With(zerr.Wrap(err, "watch config dir"), "dir", dir)
	}

	var (
		mu       sync.Mutex
		timer    *time.Timer
		lastHash uint64
	)
	if data, err := os.ReadFile(path); err == nil {
		lastHash = xxhash.Sum64(data)
	}

	reload := func() {
		data, err := os.ReadFile(path)
		if err != nil {
			appLog.Warn("config reload read failed", "path", path, "err", err.Error())
			return
		}
		h := xxhash.Sum64(data)

		mu.Lock()
		unchanged := h == lastHash
		mu.Unlock()
		if unchanged {
			appLog.Debug("config unchanged; skipping reload", "path", path)
			return
		}

		cfg, err := Parse(data)
		if err != nil {
			appLog.Warn("config rejected", "path", path, "err", err.Error())
			return
		}

		mu.Lock()
		lastHash = h
		mu.Unlock()

		appLog.Info("config reloaded", "path", path)
		fn(cfg)
	}

	debounce := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, reload)
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	appLog.Debug("config watcher started", "dir", dir, "file", file)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if strings.EqualFold(filepath.Base(ev.Name), file) &&
				ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			appLog.Warn("config watcher error", "err", err.Error())
		}
	}
}
