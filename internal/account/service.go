// Package account implements signup, login and per-user settings.
package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/store"
)

// Repository is the persistence the service needs; *store.Store implements it.
type Repository interface {
	CreateUser(ctx context.Context, user model.User) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	RecordLogin(ctx context.Context, event model.LoginEvent) error
	CountLogins(ctx context.Context, userID int64) (int, error)
	ListLogins(ctx context.Context, userID int64, limit int) ([]model.LoginEvent, error)
	GetSettings(ctx context.Context, userID int64) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
}

// SignupInput is the signup request body.
type SignupInput struct {
	Username    string `json:"username" validate:"required,min=3,max=20,alnum_"`
	Email       string `json:"email" validate:"omitempty,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	DisplayName string `json:"displayName" validate:"max=64"`
}

// LoginInput is the login request body.
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ClientMeta describes where a login came from.
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// SettingsInput is the settings update request body.
type SettingsInput struct {
	SoundEnabled         bool            `json:"soundEnabled"`
	Theme                string          `json:"theme" validate:"omitempty,oneof=light dark"`
	ShowSeconds          bool            `json:"showSeconds"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	ScheduleData         json.RawMessage `json:"scheduleData"`
}

// PasswordInput is the change-password request body.
type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}

// Service implements the account operations.
type Service struct {
	repo       Repository
	tokens     *Tokens
	validate   *validator.Validate
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithBcryptCost overrides the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// WithLogger sets the logger for non-fatal failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.tokens.now = now
	}
}

// NewService builds a Service.
func NewService(repo Repository, tokens *Tokens, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		tokens:     tokens,
		validate:   newValidator(),
		logger:     zap.NewNop(),
		bcryptCost: 10,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup creates an account with default settings and returns its id.
func (s *Service) Signup(ctx context.Context, in SignupInput) (int64, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := s.validate.Struct(in); err != nil {
		return 0, validationError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}
	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}
	id, err := s.repo.CreateUser(ctx, model.User{
		Username:     strings.ToLower(in.Username),
		Email:        in.Email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    s.now(),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// Login checks credentials, records the login and issues a token.
func (s *Service) Login(ctx context.Context, in LoginInput, meta ClientMeta) (LoginResult, error) {
	if err := s.validate.Struct(in); err != nil {
		return LoginResult{}, validationError(err)
	}
	user, err := s.repo.GetUserByUsername(ctx, strings.ToLower(strings.TrimSpace(in.Username)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("failed to load user: %w", err)
	}
	if !user.IsActive {
		return LoginResult{}, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	err = s.repo.RecordLogin(ctx, model.LoginEvent{
		UserID:    user.ID,
		At:        now,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	if err != nil {
		s.logger.Warn("failed to record login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &now
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Authenticate verifies a bearer token.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}

// Profile returns the public profile of a user.
func (s *Service) Profile(ctx context.Context, userID int64) (model.Profile, error) {
	user, err := s.user(ctx, userID)
	if err != nil {
		return model.Profile{}, err
	}
	return model.Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       optional(user.Email),
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
		LastLogin:   user.LastLogin,
	}, nil
}

// Settings returns the user's settings; ok is false when none are stored.
func (s *Service) Settings(ctx context.Context, userID int64) (settings model.Settings, ok bool, err error) {
	settings, err = s.repo.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Settings{}, false, nil
		}
		return model.Settings{}, false, fmt.Errorf("failed to load settings: %w", err)
	}
	return settings, true, nil
}

// UpdateSettings replaces the user's settings record.
func (s *Service) UpdateSettings(ctx context.Context, userID int64, in SettingsInput) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}
	if len(in.ScheduleData) > 0 && !json.Valid(in.ScheduleData) {
		return &ValidationError{
			Message: "Schedule data must be valid JSON",
			Fields:  []FieldError{{Field: "scheduleData", Error: "must be valid JSON"}},
		}
	}
	if _, err := s.user(ctx, userID); err != nil {
		return err
	}
	theme := in.Theme
	if theme == "" {
		theme = model.ThemeLight
	}
	err := s.repo.SaveSettings(ctx, model.Settings{
		UserID:               userID,
		SoundEnabled:         in.SoundEnabled,
		Theme:                theme,
		ShowSeconds:          in.ShowSeconds,
		NotificationsEnabled: in.NotificationsEnabled,
		ScheduleData:         in.ScheduleData,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID int64, in PasswordInput) error {
	if err := s.validate.Struct(in); err != nil {
		return validationError(err)
	}
	user, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// LoginCount returns how many times the user has logged in.
func (s *Service) LoginCount(ctx context.Context, userID int64) (int, error) {
	count, err := s.repo.CountLogins(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count logins: %w", err)
	}
	return count, nil
}

// LoginHistory returns the user's most recent logins.
func (s *Service) LoginHistory(ctx context.Context, userID int64, limit int) ([]model.LoginEvent, error) {
	events, err := s.repo.ListLogins(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logins: %w", err)
	}
	return events, nil
}

func (s *Service) user(ctx context.Context, userID int64) (model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// optional maps an empty string to nil so it encodes as JSON null.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
