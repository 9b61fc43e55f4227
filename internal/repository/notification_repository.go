package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duostudy/internal/model"
)

// NotificationRepository stores partner alerts. Rows are never deleted.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// List returns every notification, newest first.
func (r *NotificationRepository) List(ctx context.Context) ([]model.Notification, error) {
	var rows []notificationRow
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	out := make([]model.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.Notification{
			ID:        row.ID,
			ForUserID: model.UserID(row.ForUserID),
			Message:   row.Message,
			Timestamp: time.UnixMilli(row.TimestampMs).UTC(),
			Read:      row.Read,
		})
	}
	return out, nil
}

func (r *NotificationRepository) Upsert(ctx context.Context, n model.Notification) error {
	row := notificationRow{
		ID:          n.ID,
		ForUserID:   string(n.ForUserID),
		Message:     n.Message,
		TimestampMs: n.Timestamp.UnixMilli(),
		Read:        n.Read,
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Model(&notificationRow{}).Where("id = ?", id).Update("read", true).Error; err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}
