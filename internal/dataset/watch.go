// Package dataset loads read-only data files owned by an external fetcher
// and reloads them when the file changes on disk.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// settleDelay lets writers finish before the file is re-read.
const settleDelay = 100 * time.Millisecond

// Loader reads a dataset file.
type Loader func(path string) error

// Watch calls load whenever path is written, created or atomically replaced,
// until ctx is done. The initial load is the caller's responsibility.
func Watch(ctx context.Context, path string, load Loader, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", path, err)
	}

	go func() {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warn("Failed to close dataset watcher", zap.String("path", path), zap.Error(err))
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				handle(ctx, watcher, event, path, load, logger)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Dataset watcher error", zap.String("path", path), zap.Error(err))
			}
		}
	}()
	return nil
}

func handle(ctx context.Context, w *fsnotify.Watcher, event fsnotify.Event, path string, load Loader, logger *zap.Logger) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(settleDelay):
	}

	// Atomic replacement drops the watch on the old inode.
	if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			logger.Warn("Dataset removed, keeping previous data", zap.String("path", path))
			return
		}
		if err := w.Add(path); err != nil {
			logger.Warn("Failed to re-watch dataset", zap.String("path", path), zap.Error(err))
		}
	}

	if err := load(path); err != nil {
		logger.Warn("Dataset reload failed, keeping previous data", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Dataset reloaded", zap.String("path", path), zap.String("event", event.Op.String()))
}
