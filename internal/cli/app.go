package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"duostudy/internal/config"
	"duostudy/internal/repository"
	"duostudy/internal/service"
	"duostudy/internal/state"
)

// app is one fully wired client.
type app struct {
	cfg   config.Config
	db    *gorm.DB
	view  *state.View
	clock service.Clock

	relay    *service.NotificationService
	tasks    *service.TaskService
	timer    *service.TimerService
	progress *service.ProgressService
	profile  *service.ProfileService
	reset    *service.ResetService
	sync     *service.SyncService
}

func newApp(ctx context.Context, cfg config.Config, alerter service.Alerter) (*app, error) {
	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: %w", err)
	}

	tasks := repository.NewTaskRepository(db)
	stats := repository.NewStatsRepository(db)
	settings := repository.NewSettingsRepository(db)
	history := repository.NewHistoryRepository(db)
	notifications := repository.NewNotificationRepository(db)

	view := state.NewView()
	clock := service.NewClock(cfg.Location)
	relay := service.NewNotificationService(notifications, view, alerter, clock)

	a := &app{
		cfg:      cfg,
		db:       db,
		view:     view,
		clock:    clock,
		relay:    relay,
		tasks:    service.NewTaskService(tasks, view, relay, clock),
		timer:    service.NewTimerService(view, stats, alerter, clock),
		progress: service.NewProgressService(view),
		profile:  service.NewProfileService(settings, view),
		reset:    service.NewResetService(tasks, stats, history, view, clock),
		sync:     service.NewSyncService(tasks, stats, settings, history, notifications, view, relay, clock),
	}
	a.sync.TrackStudy(a.timer)
	a.reset.TrackStudy(a.timer)
	a.sync.Load(ctx)
	return a, nil
}

func (a *app) Close() {
	sqlDB, err := a.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.WithError(err).Warn("close db")
	}
}
