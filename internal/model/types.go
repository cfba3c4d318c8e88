// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"time"
)

// Theme values accepted for Settings.Theme.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Preferences defines dashboard display settings.
type Preferences struct {
	SoundEnabled         bool
	DarkMode             bool
	ShowSeconds          bool
	NotificationsEnabled bool
}

// Theme returns the stored theme name for the preferences.
func (p Preferences) Theme() string {
	if p.DarkMode {
		return ThemeDark
	}
	return ThemeLight
}

// User is an account of the settings service.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
	LastLogin    *time.Time
	IsActive     bool
}

// Profile is the public view of a User.
type Profile struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       *string    `json:"email"`
	DisplayName string     `json:"display_name"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLogin   *time.Time `json:"last_login"`
}

// Settings is the per-user settings record.
// ScheduleData is opaque JSON, nil when never saved.
type Settings struct {
	UserID               int64
	SoundEnabled         bool
	Theme                string
	ShowSeconds          bool
	NotificationsEnabled bool
	ScheduleData         json.RawMessage
}

// DefaultSettings returns the settings stored for a new account.
func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID:       userID,
		SoundEnabled: true,
		Theme:        ThemeLight,
	}
}

// Preferences extracts the dashboard preferences.
func (s Settings) Preferences() Preferences {
	return Preferences{
		SoundEnabled:         s.SoundEnabled,
		DarkMode:             s.Theme == ThemeDark,
		ShowSeconds:          s.ShowSeconds,
		NotificationsEnabled: s.NotificationsEnabled,
	}
}

// ScheduleData is the structure stored in Settings.ScheduleData.
type ScheduleData struct {
	Week [][]string `json:"week,omitempty"`
}

// LoginEvent records a successful login.
type LoginEvent struct {
	UserID    int64
	At        time.Time
	IPAddress string
	UserAgent string
}
