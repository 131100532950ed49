package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/MattDietz/lightshowpi/internal/config"
)

// configHolder hands the latest good config to per-song consumers. Reloads
// land here and take effect at the next song boundary; the running song keeps
// the config it started with.
type configHolder struct {
	v atomic.Value
}

func newConfigHolder(cfg config.Config) *configHolder {
	h := &configHolder{}
	h.v.Store(cfg)
	return h
}

func (h *configHolder) Load() config.Config {
	return h.v.Load().(config.Config)
}

func (h *configHolder) Store(cfg config.Config) {
	h.v.Store(cfg)
}

// watchConfig reloads the config file on change until the context ends. A
// reload that fails validation is logged and discarded; the previous config
// stays active. The watch is on the directory so editor rename-into-place
// saves are seen.
func watchConfig(ctx context.Context, path string, holder *configHolder, logger *slog.Logger) (func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != path || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				loaded, err := config.Load(path)
				if err != nil {
					logger.Warn("config reload failed, keeping previous config", "error", err.Error())
					continue
				}
				holder.Store(loaded.Config)
				logger.Info("config reloaded, applies from next song", "path", path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err.Error())
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
