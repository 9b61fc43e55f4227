package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duostudy/internal/model"
)

const settingsRowID = 1

// SettingsRepository stores the singleton profile row.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the stored settings, or the defaults when none were saved yet.
func (r *SettingsRepository) Get(ctx context.Context) (model.Settings, error) {
	var row settingsRow
	err := r.db.WithContext(ctx).First(&row, settingsRowID).Error
	switch {
	case err == nil:
		return rowToSettings(row), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.DefaultSettings(), nil
	default:
		return model.DefaultSettings(), fmt.Errorf("find settings: %w", err)
	}
}

func (r *SettingsRepository) Save(ctx context.Context, settings model.Settings) error {
	row := settingsRow{
		ID:            settingsRowID,
		NameA:         settings.NameA,
		NameB:         settings.NameB,
		CurrentUserID: string(settings.CurrentUserID),
		Theme:         string(settings.Theme),
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func rowToSettings(row settingsRow) model.Settings {
	settings := model.DefaultSettings()
	settings.NameA = row.NameA
	settings.NameB = row.NameB
	if user := model.UserID(row.CurrentUserID); user.Valid() {
		settings.CurrentUserID = user
	}
	if row.Theme == string(model.ThemeDark) {
		settings.Theme = model.ThemeDark
	}
	return settings
}
