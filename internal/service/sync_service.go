package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// SyncResult reports which parts of the view a tick replaced.
type SyncResult struct {
	TasksChanged         bool
	StatsChanged         bool
	NotificationsChanged bool
	Delivered            int
}

// SyncService keeps the local view eventually consistent with the store by
// periodic full reads. Remote values always win, except for study time the
// local timer has credited but not yet stored, which is kept on top of the
// fetched row.
type SyncService struct {
	tasks         TaskStore
	stats         StatsStore
	settings      SettingsStore
	history       HistoryStore
	notifications NotificationStore
	view          *state.View
	relay         *NotificationService
	clock         Clock
	study         StudyTracker
}

func NewSyncService(tasks TaskStore, stats StatsStore, settings SettingsStore, history HistoryStore, notifications NotificationStore, view *state.View, relay *NotificationService, clock Clock) *SyncService {
	return &SyncService{
		tasks:         tasks,
		stats:         stats,
		settings:      settings,
		history:       history,
		notifications: notifications,
		view:          view,
		relay:         relay,
		clock:         clock,
	}
}

// TrackStudy makes stats refreshes keep t's unsaved study time.
func (s *SyncService) TrackStudy(t StudyTracker) {
	s.study = t
}

// Load performs the initial fetch. Every failed read falls back to an
// empty or default value.
func (s *SyncService) Load(ctx context.Context) {
	today := s.clock.Today()
	snap := state.Snapshot{Tasks: []model.Task{}, Settings: model.DefaultSettings()}

	if tasks, err := s.tasks.List(ctx); err != nil {
		log.WithError(err).Warn("initial load: tasks")
	} else {
		snap.Tasks = tasks
	}
	stats, err := s.stats.List(ctx)
	if err != nil {
		log.WithError(err).Warn("initial load: stats")
	}
	snap.Stats = stats.Ensure(today)
	if settings, err := s.settings.Get(ctx); err != nil {
		log.WithError(err).Warn("initial load: settings")
	} else {
		snap.Settings = settings
	}
	if history, err := s.history.List(ctx); err != nil {
		log.WithError(err).Warn("initial load: history")
	} else {
		if len(history) > model.HistoryLimit {
			history = history[:model.HistoryLimit]
		}
		snap.History = history
	}
	if notifications, err := s.notifications.List(ctx); err != nil {
		log.WithError(err).Warn("initial load: notifications")
	} else {
		snap.Notifications = notifications
	}

	s.view.Load(snap)
	log.WithFields(log.Fields{
		"tasks":   len(snap.Tasks),
		"history": len(snap.History),
		"user":    snap.Settings.CurrentUserID,
	}).Info("initial load complete")
}

// Tick re-reads tasks, stats and notifications and replaces each local value
// only when it differs. A failed read keeps the previous value; the error is
// returned for the caller to log.
func (s *SyncService) Tick(ctx context.Context) (SyncResult, error) {
	var (
		res  SyncResult
		errs []error
	)

	if tasks, err := s.tasks.List(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sync tasks: %w", err))
	} else {
		res.TasksChanged = s.view.ReplaceTasksIfChanged(tasks)
	}

	if err := s.refreshStats(ctx, &res); err != nil {
		errs = append(errs, err)
	}

	if notifications, err := s.notifications.List(ctx); err != nil {
		errs = append(errs, fmt.Errorf("sync notifications: %w", err))
	} else {
		res.NotificationsChanged = s.view.ReplaceNotificationsIfChanged(notifications)
	}

	if s.relay != nil {
		res.Delivered = s.relay.Receive(ctx)
	}

	if res.TasksChanged || res.StatsChanged || res.NotificationsChanged {
		log.WithFields(log.Fields{
			"tasks":         res.TasksChanged,
			"stats":         res.StatsChanged,
			"notifications": res.NotificationsChanged,
			"delivered":     res.Delivered,
		}).Debug("sync applied remote changes")
	}
	return res, errors.Join(errs...)
}

func (s *SyncService) refreshStats(ctx context.Context, res *SyncResult) error {
	var err error
	apply := func(user model.UserID, pending int64) {
		var stats model.StatsMap
		if stats, err = s.stats.List(ctx); err != nil {
			err = fmt.Errorf("sync stats: %w", err)
			return
		}
		today := s.clock.Today()
		stats = stats.Ensure(today)
		if pending > 0 {
			stats = stats.AddStudyTime(user, pending, today)
		}
		res.StatsChanged = s.view.ReplaceStatsIfChanged(stats)
	}
	if s.study == nil {
		apply("", 0)
	} else {
		s.study.WithPending(apply)
	}
	return err
}

// Job wraps Tick for the scheduler. Failures are logged and swallowed so the
// next period runs as usual.
func (s *SyncService) Job(ctx context.Context, timeout time.Duration) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		jobCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if _, err := s.Tick(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Warn("sync tick failed")
		}
	}
}
