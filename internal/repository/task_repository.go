package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duostudy/internal/model"
)

// TaskRepository stores the shared task list.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]model.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, rowToTask(row))
	}
	return tasks, nil
}

// UpsertBatch writes every task in full, inserting or replacing by id.
func (r *TaskRepository) UpsertBatch(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([]taskRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, taskToRow(task))
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error; err != nil {
		return fmt.Errorf("upsert tasks: %w", err)
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&taskRow{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
