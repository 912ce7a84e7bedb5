package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors path for changes and calls onChange with the newly loaded
// Config each time the file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., invalid YAML), the error is logged and the
// previous config remains active — Watch does not call onChange. Successful
// reloads log which sampling sources were added or removed so an operator
// can tell from the agent log which stations a config push touched.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	// Seed the source set for diffing; a load failure here just means the
	// first successful reload reports every source as added.
	prev, _ := Load(path)

	slog.Info("config: watching for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Editors often write via
			// rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			cfg, err := Load(path)
			if err != nil {
				slog.Error("config: reload failed — keeping previous config",
					"path", path, "err", err)
				continue
			}

			added, removed := diffSources(prev, cfg)
			slog.Info("config: reloaded",
				"path", path,
				"sources", len(cfg.Agent.Sources),
				"sources_added", added,
				"sources_removed", removed,
			)
			prev = cfg
			onChange(cfg)

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// diffSources reports the source IDs present in next but not in prev and
// vice versa. A nil prev treats every source in next as added.
func diffSources(prev, next *Config) (added, removed []string) {
	prevIDs := make(map[string]bool)
	if prev != nil {
		for _, src := range prev.Agent.Sources {
			prevIDs[src.ID] = true
		}
	}
	nextIDs := make(map[string]bool)
	for _, src := range next.Agent.Sources {
		nextIDs[src.ID] = true
		if !prevIDs[src.ID] {
			added = append(added, src.ID)
		}
	}
	for _, src := range prev.sourcesOrNil() {
		if !nextIDs[src.ID] {
			removed = append(removed, src.ID)
		}
	}
	return added, removed
}

// sourcesOrNil lets diffSources range over a possibly-nil Config.
func (c *Config) sourcesOrNil() []Source {
	if c == nil {
		return nil
	}
	return c.Agent.Sources
}
