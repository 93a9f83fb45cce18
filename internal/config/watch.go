package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

const reloadDebounce = 200 * time.Millisecond

// WatchRules reloads the rule files whenever one of them changes and hands
// the fresh set to apply. A file that fails to load keeps the previous rules
// in place. It returns when ctx is cancelled.
func WatchRules(ctx context.Context, rc RulesConfig, log *logrus.Entry, apply func(*Rules)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("rules watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory: editors replace files by rename.
	if err := w.Add(rc.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", rc.Dir, err)
	}
	phrases, pii, cats := rc.Paths()
	watched := map[string]bool{
		filepath.Clean(phrases): true,
		filepath.Clean(pii):     true,
		filepath.Clean(cats):    true,
	}

	var timer *time.Timer
	var fire <-chan time.Time
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
			if !watched[filepath.Clean(ev.Name)] {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			rules, err := LoadRules(rc)
			if err != nil {
				log.WithField("error", err.Error()).Warn("rules reload failed, keeping previous rules")
				continue
			}
			log.Info("rules reloaded")
			apply(rules)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithField("error", err.Error()).Warn("rules watcher error")
		}
	}
}
