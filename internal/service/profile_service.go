package service

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"duostudy/internal/model"
	"duostudy/internal/state"
)

// ProfileService edits the settings singleton. Every change is persisted.
type ProfileService struct {
	store SettingsStore
	view  *state.View
}

func NewProfileService(store SettingsStore, view *state.View) *ProfileService {
	return &ProfileService{store: store, view: view}
}

func (s *ProfileService) Settings() model.Settings {
	return s.view.Settings()
}

// Rename sets the display name of the acting identity.
func (s *ProfileService) Rename(ctx context.Context, name string) (model.Settings, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.view.Settings(), ErrEmptyName
	}
	current := s.view.Settings()
	return s.save(ctx, current.WithName(current.CurrentUserID, name))
}

// SwitchUser changes which identity this client acts as.
func (s *ProfileService) SwitchUser(ctx context.Context, user model.UserID) (model.Settings, error) {
	if !user.Valid() {
		return s.view.Settings(), ErrUnknownUser
	}
	next := s.view.Settings()
	next.CurrentUserID = user
	return s.save(ctx, next)
}

func (s *ProfileService) ToggleTheme(ctx context.Context) (model.Settings, error) {
	next := s.view.Settings()
	if next.Theme == model.ThemeDark {
		next.Theme = model.ThemeLight
	} else {
		next.Theme = model.ThemeDark
	}
	return s.save(ctx, next)
}

func (s *ProfileService) save(ctx context.Context, settings model.Settings) (model.Settings, error) {
	if err := s.store.Save(ctx, settings); err != nil {
		return s.view.Settings(), fmt.Errorf("save settings: %w", err)
	}
	s.view.SetSettings(settings)
	log.WithFields(log.Fields{"user": settings.CurrentUserID, "theme": settings.Theme}).Info("settings saved")
	return settings, nil
}
