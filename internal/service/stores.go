package service

import (
	"context"

	"duostudy/internal/model"
)

// The repository package implements these over gorm; tests use fakes.

type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	UpsertBatch(ctx context.Context, tasks []model.Task) error
	Delete(ctx context.Context, id string) error
}

type StatsStore interface {
	List(ctx context.Context) (model.StatsMap, error)
	UpsertBatch(ctx context.Context, stats model.StatsMap) error
}

type SettingsStore interface {
	Get(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, settings model.Settings) error
}

type HistoryStore interface {
	List(ctx context.Context) ([]model.HistoryEntry, error)
	Insert(ctx context.Context, entry model.HistoryEntry) error
}

type NotificationStore interface {
	List(ctx context.Context) ([]model.Notification, error)
	Upsert(ctx context.Context, n model.Notification) error
	MarkRead(ctx context.Context, id string) error
}

// Alerter raises a local, user-visible alert. Implementations are best
// effort.
type Alerter interface {
	Alert(ctx context.Context, title, body string) error
}

// StudyTracker holds study time credited to the view but not yet stored.
// TimerService implements it.
type StudyTracker interface {
	Flush(ctx context.Context) error
	WithPending(fn func(user model.UserID, seconds int64))
}
