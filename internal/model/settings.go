package model

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Settings is the process-wide profile: display names, the identity this
// client acts as, and the theme.
type Settings struct {
	NameA         string
	NameB         string
	CurrentUserID UserID
	Theme         Theme
}

// DefaultSettings is used whenever the store has no settings row.
func DefaultSettings() Settings {
	return Settings{
		NameA:         "Partner 1",
		NameB:         "Partner 2",
		CurrentUserID: UserA,
		Theme:         ThemeLight,
	}
}

// Name returns the display name of user.
func (s Settings) Name(user UserID) string {
	if user == UserB {
		return s.NameB
	}
	return s.NameA
}

// CurrentName returns the display name of the acting identity.
func (s Settings) CurrentName() string {
	return s.Name(s.CurrentUserID)
}

// WithName returns a copy with user's display name replaced.
func (s Settings) WithName(user UserID, name string) Settings {
	if user == UserB {
		s.NameB = name
	} else {
		s.NameA = name
	}
	return s
}
