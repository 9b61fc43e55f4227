package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"duostudy/internal/model"
)

// HistoryRepository is the append-only archive of past days.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// List returns archived days, most recently archived first.
func (r *HistoryRepository) List(ctx context.Context) ([]model.HistoryEntry, error) {
	var rows []historyRow
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	entries := make([]model.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := decodeHistory(row)
		if err != nil {
			return nil, fmt.Errorf("decode history %d: %w", row.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *HistoryRepository) Insert(ctx context.Context, entry model.HistoryEntry) error {
	row, err := encodeHistory(entry)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func encodeHistory(entry model.HistoryEntry) (historyRow, error) {
	tasks := make([]taskRecord, 0, len(entry.Tasks))
	for _, task := range entry.Tasks {
		tasks = append(tasks, taskToRecord(task))
	}
	stats := make(map[string]statsRecord, len(entry.Stats))
	for user, s := range entry.Stats {
		stats[string(user)] = statsToRecord(s)
	}

	rawTasks, err := json.Marshal(tasks)
	if err != nil {
		return historyRow{}, err
	}
	rawStats, err := json.Marshal(stats)
	if err != nil {
		return historyRow{}, err
	}
	return historyRow{Date: entry.Date, Tasks: string(rawTasks), Stats: string(rawStats)}, nil
}

func decodeHistory(row historyRow) (model.HistoryEntry, error) {
	var tasks []taskRecord
	if row.Tasks != "" {
		if err := json.Unmarshal([]byte(row.Tasks), &tasks); err != nil {
			return model.HistoryEntry{}, err
		}
	}
	var stats map[string]statsRecord
	if row.Stats != "" {
		if err := json.Unmarshal([]byte(row.Stats), &stats); err != nil {
			return model.HistoryEntry{}, err
		}
	}

	entry := model.HistoryEntry{
		Date:  row.Date,
		Tasks: make([]model.Task, 0, len(tasks)),
		Stats: make(model.StatsMap, len(stats)),
	}
	for _, rec := range tasks {
		entry.Tasks = append(entry.Tasks, recordToTask(rec))
	}
	for user, rec := range stats {
		entry.Stats[model.UserID(user)] = recordToStats(rec)
	}
	return entry, nil
}
