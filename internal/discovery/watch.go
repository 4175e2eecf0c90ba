// Copyright 2025 James Ross
package discovery

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event reports a single plugin file appearing or disappearing under a
// watched root.
type Event struct {
	Path    string
	Removed bool
}

// Watch follows root for plugin files created, renamed into place, or
// removed, emitting an Event per change on the returned channel until ctx is
// cancelled, at which point the channel is closed. Non-plugin files in the
// directory are filtered out before they ever reach the caller.
func Watch(ctx context.Context, root string, log *zap.Logger) (<-chan Event, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(root); err != nil {
		_ = w.Close()
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !isPluginFile(ev.Name) {
					continue
				}
				removed := ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
				select {
				case out <- Event{Path: ev.Name, Removed: removed}:
				case <-ctx.Done():
					return
				}
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				if log != nil {
					log.Warn("plugin directory watch error", zap.Error(werr))
				}
			}
		}
	}()
	return out, nil
}

func isPluginFile(path string) bool {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "plugin_") {
		return false
	}
	switch runtime.GOOS {
	case "windows":
		return strings.HasSuffix(name, ".dll")
	case "darwin":
		return strings.HasSuffix(name, ".dylib")
	default:
		return strings.HasSuffix(name, ".so")
	}
}
