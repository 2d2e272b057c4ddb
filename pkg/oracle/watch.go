package oracle

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/ordo/internal/logger"
	"github.com/marmos91/ordo/pkg/config"
)

// DefaultSettle is how long Watch waits for a burst of file events to end
// before rebuilding the spec.
const DefaultSettle = 200 * time.Millisecond

// Watch rebuilds the launch spec of cfg whenever the configuration
// directory or the primary file's directory changes, and passes each result
// to fn. fn is called once up front. Watch blocks until ctx is done.
func (p *Planner) Watch(ctx context.Context, cfg *config.Config, settle time.Duration, fn func(*LaunchSpec, error)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dirs := map[string]bool{}
	if cfg.Oracle.ConfDir != "" {
		dirs[filepath.Clean(cfg.Oracle.ConfDir)] = true
	}
	if cfg.Oracle.ConfigFile != "" {
		dirs[filepath.Dir(cfg.Oracle.ConfigFile)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watching oracle configuration", logger.KeyPath, dir)
	}

	fn(p.Build(cfg))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("oracle configuration changed", logger.KeyPath, ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(settle)
			} else {
				timer.Reset(settle)
			}
			pending = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("oracle configuration watch error", logger.Err(err))

		case <-pending:
			pending = nil
			fn(p.Build(cfg))
		}
	}
}
