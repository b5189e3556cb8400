package manager

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/lightpattern/skillet/pkg/logger"
	"github.com/pkg/errors"
)

// WatchRoots watches every configured skills root and triggers a full
// rescan (with load-state pruning) after filesystem changes settle for
// the debounce interval. It blocks until ctx is cancelled. Roots added
// after the watcher starts are not picked up; callers that add roots at
// runtime already get a rescan from AddSkillsDirectory itself.
func (m *Manager) WatchRoots(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create filesystem watcher")
	}
	defer watcher.Close()

	watched := 0
	for _, root := range m.index.Roots() {
		if err := watcher.Add(root); err != nil {
			logger.G(ctx).WithError(err).WithField("root", root).Debug("skills root not watchable")
			continue
		}
		watched++
	}
	if watched == 0 {
		return errors.New("no watchable skills roots")
	}

	log := logger.G(ctx).WithField("roots", watched)
	log.Info("watching skills roots for changes")

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("filesystem watcher error")
		case <-timerC:
			timer = nil
			timerC = nil
			result := m.ReloadSkillsDirectory(ctx)
			log.WithField("skills", result.CurrentCount).
				WithField("unloaded", len(result.UnloadedSkills)).
				Info("skills roots changed; registry rescanned")
		}
	}
}
