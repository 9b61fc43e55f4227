package repository

import (
	"time"

	"duostudy/internal/model"
)

// Storage rows use a flat snake_case schema; nothing outside this package
// sees them.

type taskRow struct {
	ID          string `gorm:"primaryKey"`
	Text        string
	CompletedA  bool  `gorm:"column:completed_a"`
	CompletedB  bool  `gorm:"column:completed_b"`
	IsDueA      bool  `gorm:"column:is_due_a"`
	IsDueB      bool  `gorm:"column:is_due_b"`
	CreatedAtMs int64 `gorm:"column:created_at;index"`
}

func (taskRow) TableName() string { return "tasks" }

type statsRow struct {
	UserID         string `gorm:"column:user_id;primaryKey"`
	TotalStudyTime int64  `gorm:"column:total_study_time"`
	LastReset      string `gorm:"column:last_reset"`
}

func (statsRow) TableName() string { return "stats" }

type settingsRow struct {
	ID            uint   `gorm:"primaryKey;autoIncrement:false"`
	NameA         string `gorm:"column:name_a"`
	NameB         string `gorm:"column:name_b"`
	CurrentUserID string `gorm:"column:current_user_id"`
	Theme         string
}

func (settingsRow) TableName() string { return "settings" }

type historyRow struct {
	ID    uint `gorm:"primaryKey"`
	Date  string
	Tasks string
	Stats string
}

func (historyRow) TableName() string { return "history" }

type notificationRow struct {
	ID          string `gorm:"primaryKey"`
	ForUserID   string `gorm:"column:for_user_id;index"`
	Message     string
	TimestampMs int64 `gorm:"column:timestamp;index"`
	Read        bool
}

func (notificationRow) TableName() string { return "notifications" }

// taskRecord is the JSON form of a task inside a history row.
type taskRecord struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CompletedA bool   `json:"completed_a"`
	CompletedB bool   `json:"completed_b"`
	IsDueA     bool   `json:"is_due_a"`
	IsDueB     bool   `json:"is_due_b"`
	CreatedAt  int64  `json:"created_at"`
}

type statsRecord struct {
	UserID         string `json:"user_id"`
	TotalStudyTime int64  `json:"total_study_time"`
	LastReset      string `json:"last_reset"`
}

func taskToRecord(task model.Task) taskRecord {
	a, b := task.State(model.UserA), task.State(model.UserB)
	return taskRecord{
		ID:         task.ID,
		Text:       task.Text,
		CompletedA: a.Completed,
		CompletedB: b.Completed,
		IsDueA:     a.Due,
		IsDueB:     b.Due,
		CreatedAt:  task.CreatedAt.UnixMilli(),
	}
}

func recordToTask(rec taskRecord) model.Task {
	return model.Task{
		ID:   rec.ID,
		Text: rec.Text,
		Progress: map[model.UserID]model.TaskState{
			model.UserA: {Completed: rec.CompletedA, Due: rec.IsDueA},
			model.UserB: {Completed: rec.CompletedB, Due: rec.IsDueB},
		},
		CreatedAt: time.UnixMilli(rec.CreatedAt).UTC(),
	}
}

func taskToRow(task model.Task) taskRow {
	rec := taskToRecord(task)
	return taskRow{
		ID:          rec.ID,
		Text:        rec.Text,
		CompletedA:  rec.CompletedA,
		CompletedB:  rec.CompletedB,
		IsDueA:      rec.IsDueA,
		IsDueB:      rec.IsDueB,
		CreatedAtMs: rec.CreatedAt,
	}
}

func rowToTask(row taskRow) model.Task {
	return recordToTask(taskRecord{
		ID:         row.ID,
		Text:       row.Text,
		CompletedA: row.CompletedA,
		CompletedB: row.CompletedB,
		IsDueA:     row.IsDueA,
		IsDueB:     row.IsDueB,
		CreatedAt:  row.CreatedAtMs,
	})
}

func statsToRecord(stats model.UserStats) statsRecord {
	return statsRecord{
		UserID:         string(stats.UserID),
		TotalStudyTime: stats.TotalStudyTime,
		LastReset:      stats.LastReset,
	}
}

func recordToStats(rec statsRecord) model.UserStats {
	return model.UserStats{
		UserID:         model.UserID(rec.UserID),
		TotalStudyTime: rec.TotalStudyTime,
		LastReset:      rec.LastReset,
	}
}
