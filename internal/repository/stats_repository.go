package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duostudy/internal/model"
)

// StatsRepository stores per-user study time.
type StatsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) List(ctx context.Context) (model.StatsMap, error) {
	var rows []statsRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list stats: %w", err)
	}
	stats := make(model.StatsMap, len(rows))
	for _, row := range rows {
		stats[model.UserID(row.UserID)] = recordToStats(statsRecord(row))
	}
	return stats, nil
}

// UpsertBatch writes one row per user in stats.
func (r *StatsRepository) UpsertBatch(ctx context.Context, stats model.StatsMap) error {
	if len(stats) == 0 {
		return nil
	}
	rows := make([]statsRow, 0, len(stats))
	for _, user := range model.Users() {
		if entry, ok := stats[user]; ok {
			rows = append(rows, statsRow(statsToRecord(entry)))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("upsert stats: %w", err)
	}
	return nil
}
