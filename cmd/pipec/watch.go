package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// settle is how long a burst of file events must be quiet before a
// rebuild.
const settle = 150 * time.Millisecond

// watchConfig calls build whenever the pipeline file or a shader it
// names changes. The parent directories are watched, not the files. It
// returns when ctx is done.
func watchConfig(ctx context.Context, path string, logger *log.Logger, build func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool)
	files := make(map[string]bool)
	track := func() {
		clear(files)
		abs, _ := filepath.Abs(path)
		names := []string{abs}
		if cfg, err := LoadConfig(path); err == nil {
			for _, src := range cfg.Sources() {
				a, _ := filepath.Abs(src)
				names = append(names, a)
			}
		}
		for _, name := range names {
			files[name] = true
			dir := filepath.Dir(name)
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				logger.Warn("cannot watch", "dir", dir, "err", err)
				continue
			}
			watched[dir] = true
		}
	}
	track()
	logger.Info("watching", "config", path, "files", len(files))

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(e.Name)
			if !files[name] || e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("changed", "file", e.Name, "op", e.Op)
			timer = time.After(settle)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)

		case <-timer:
			timer = nil
			if err := build(); err != nil {
				logger.Error("build failed", "err", err)
			}
			// The file may now name other shaders.
			track()
		}
	}
}
