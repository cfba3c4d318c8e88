package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/verte-zerg/stundenplan/internal/model"
)

// GetSettings returns the settings row of a user, or ErrNotFound.
func (s *Store) GetSettings(ctx context.Context, userID int64) (model.Settings, error) {
	var (
		settings      model.Settings
		sound, secs   int
		notifications int
		scheduleData  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT user_id, sound_enabled, theme, show_seconds, notifications_enabled, schedule_data
		 FROM user_settings WHERE user_id = ?`), userID).
		Scan(&settings.UserID, &sound, &settings.Theme, &secs, &notifications, &scheduleData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Settings{}, ErrNotFound
		}
		return model.Settings{}, err
	}
	settings.SoundEnabled = sound != 0
	settings.ShowSeconds = secs != 0
	settings.NotificationsEnabled = notifications != 0
	if scheduleData.Valid {
		settings.ScheduleData = json.RawMessage(scheduleData.String)
	}
	return settings, nil
}

// SaveSettings replaces the settings row of a user, creating it when missing.
func (s *Store) SaveSettings(ctx context.Context, settings model.Settings) error {
	var scheduleData sql.NullString
	if len(settings.ScheduleData) > 0 && string(settings.ScheduleData) != "null" {
		scheduleData = sql.NullString{String: string(settings.ScheduleData), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO user_settings (user_id, sound_enabled, theme, show_seconds, notifications_enabled, schedule_data)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			sound_enabled = excluded.sound_enabled,
			theme = excluded.theme,
			show_seconds = excluded.show_seconds,
			notifications_enabled = excluded.notifications_enabled,
			schedule_data = excluded.schedule_data`),
		settings.UserID,
		boolToInt(settings.SoundEnabled),
		settings.Theme,
		boolToInt(settings.ShowSeconds),
		boolToInt(settings.NotificationsEnabled),
		scheduleData,
	)
	return err
}
