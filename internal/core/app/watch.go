package app

import (
	"log/slog"
	"path/filepath"
	"strings"

	"phpnav/internal/core/errors"
	"phpnav/internal/watcher"
)

// StartWatch begins invalidating resolver caches as workspace files
// change. PHP file edits drop only the entries touching that file;
// sidecar metadata edits clear everything, since a mapping document can
// redirect resolutions for any number of callers.
func (a *App) StartWatch() error {
	if a.watch != nil {
		return errors.New(errors.CodeValidationError, "watcher already running")
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Watch.Exclude,
		a.Config.Watch.Exclude,
		a.onFilesChanged,
	)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "create watcher")
	}
	if err := w.Watch(a.Config.Workspace.Roots); err != nil {
		_ = w.Close()
		return errors.Wrap(err, errors.CodeIO, "watch workspace roots")
	}

	a.watch = w
	slog.Info("watching workspace", "roots", a.Config.Workspace.Roots, "debounce", a.Config.Watch.Debounce)
	return nil
}

func (a *App) onFilesChanged(paths []string) {
	dropped := 0
	for _, path := range paths {
		if isSidecarDoc(path) {
			slog.Debug("sidecar metadata changed, clearing caches", "path", path)
			a.Resolver.InvalidateAll()
			return
		}
		dropped += a.Resolver.InvalidatePath(path)
	}
	if dropped > 0 {
		slog.Debug("invalidated cache entries", "files", len(paths), "entries", dropped)
	}
}

func isSidecarDoc(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
