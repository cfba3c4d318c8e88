package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/verte-zerg/stundenplan/internal/model"
)

const userColumns = `id, username, email, password_hash, display_name, created_at, last_login, is_active`

// CreateUser stores a new user together with its default settings row.
// The username must already be normalized by the caller.
func (s *Store) CreateUser(ctx context.Context, user model.User) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	var existing int64
	err = tx.QueryRowContext(ctx, s.rebind(`SELECT id FROM users WHERE username = ?`), user.Username).Scan(&existing)
	switch {
	case err == nil:
		return 0, fmt.Errorf("username %q: %w", user.Username, ErrConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return 0, err
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	err = tx.QueryRowContext(ctx, s.rebind(
		`INSERT INTO users (username, email, password_hash, display_name, created_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING id`),
		user.Username,
		nullString(user.Email),
		user.PasswordHash,
		nullString(user.DisplayName),
		formatTime(createdAt),
		boolToInt(user.IsActive),
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	defaults := model.DefaultSettings(id)
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO user_settings (user_id, sound_enabled, theme, show_seconds, notifications_enabled)
		 VALUES (?, ?, ?, ?, ?)`),
		id,
		boolToInt(defaults.SoundEnabled),
		defaults.Theme,
		boolToInt(defaults.ShowSeconds),
		boolToInt(defaults.NotificationsEnabled),
	)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetUserByUsername looks a user up by normalized username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	return scanUser(row)
}

// GetUserByID looks a user up by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	return scanUser(row)
}

// SetActive enables or disables a user account.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET is_active = ? WHERE id = ?`), boolToInt(active), id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// UpdatePassword replaces a user's password hash.
func (s *Store) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE users SET password_hash = ? WHERE id = ?`), passwordHash, id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

// RecordLogin updates the user's last login and appends a login history entry.
func (s *Store) RecordLogin(ctx context.Context, event model.LoginEvent) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	at := formatTime(event.At)
	res, err := tx.ExecContext(ctx, s.rebind(`UPDATE users SET last_login = ? WHERE id = ?`), at, event.UserID)
	if err != nil {
		return err
	}
	if err = expectAffected(res); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, s.rebind(
		`INSERT INTO login_history (user_id, login_time, ip_address, user_agent) VALUES (?, ?, ?, ?)`),
		event.UserID, at, nullString(event.IPAddress), nullString(event.UserAgent))
	if err != nil {
		return err
	}
	return tx.Commit()
}

// CountLogins returns the number of recorded logins for a user.
func (s *Store) CountLogins(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM login_history WHERE user_id = ?`), userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListLogins returns the most recent logins of a user, newest first.
func (s *Store) ListLogins(ctx context.Context, userID int64, limit int) ([]model.LoginEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT login_time, ip_address, user_agent FROM login_history
		 WHERE user_id = ?
		 ORDER BY id DESC
		 LIMIT ?`), userID, limit)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var events []model.LoginEvent
	for rows.Next() {
		var at string
		var ip, ua sql.NullString
		if err := rows.Scan(&at, &ip, &ua); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		events = append(events, model.LoginEvent{
			UserID:    userID,
			At:        parsed,
			IPAddress: ip.String,
			UserAgent: ua.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		user        model.User
		email       sql.NullString
		displayName sql.NullString
		createdAt   string
		lastLogin   sql.NullString
		active      int
	)
	err := row.Scan(&user.ID, &user.Username, &email, &user.PasswordHash, &displayName, &createdAt, &lastLogin, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	user.Email = email.String
	user.DisplayName = displayName.String
	user.IsActive = active != 0
	if user.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.User{}, fmt.Errorf("invalid created_at for user %d: %w", user.ID, err)
	}
	if lastLogin.Valid {
		parsed, err := time.Parse(time.RFC3339Nano, lastLogin.String)
		if err != nil {
			return model.User{}, fmt.Errorf("invalid last_login for user %d: %w", user.ID, err)
		}
		user.LastLogin = &parsed
	}
	return user, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
