package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/verte-zerg/stundenplan/internal/account"
	"github.com/verte-zerg/stundenplan/internal/model"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

type handlers struct {
	svc    *account.Service
	logger *zap.Logger
	ping   func(context.Context) error
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      userResponse `json:"user"`
}

type settingsResponse struct {
	UserID               int64   `json:"user_id"`
	SoundEnabled         bool    `json:"sound_enabled"`
	Theme                string  `json:"theme"`
	ShowSeconds          bool    `json:"show_seconds"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	ScheduleData         *string `json:"schedule_data"`
}

type loginEntry struct {
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

func (h *handlers) health(c *fiber.Ctx) error {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	if h.ping != nil {
		if err := h.ping(c.UserContext()); err != nil {
			h.logger.Error("database ping failed", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":    "error",
				"error":     "Database unavailable",
				"timestamp": timestamp,
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": timestamp,
	})
}

func (h *handlers) signup(c *fiber.Ctx) error {
	var in account.SignupInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	id, err := h.svc.Signup(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"userId":  id,
	})
}

func (h *handlers) login(c *fiber.Ctx) error {
	var in account.LoginInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.svc.Login(c.UserContext(), in, account.ClientMeta{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC(),
		User: userResponse{
			ID:          res.User.ID,
			Username:    res.User.Username,
			DisplayName: res.User.DisplayName,
		},
	})
}

func (h *handlers) profile(c *fiber.Ctx) error {
	profile, err := h.svc.Profile(c.UserContext(), currentUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(profile)
}

func (h *handlers) getSettings(c *fiber.Ctx) error {
	settings, ok, err := h.svc.Settings(c.UserContext(), currentUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	if !ok {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(newSettingsResponse(settings))
}

func newSettingsResponse(s model.Settings) settingsResponse {
	resp := settingsResponse{
		UserID:               s.UserID,
		SoundEnabled:         s.SoundEnabled,
		Theme:                s.Theme,
		ShowSeconds:          s.ShowSeconds,
		NotificationsEnabled: s.NotificationsEnabled,
	}
	if len(s.ScheduleData) > 0 {
		data := string(s.ScheduleData)
		resp.ScheduleData = &data
	}
	return resp
}

func (h *handlers) putSettings(c *fiber.Ctx) error {
	var in account.SettingsInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.svc.UpdateSettings(c.UserContext(), currentUser(c), in); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Settings updated successfully"})
}

func (h *handlers) changePassword(c *fiber.Ctx) error {
	var in account.PasswordInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.svc.ChangePassword(c.UserContext(), currentUser(c), in); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully"})
}

func (h *handlers) loginCount(c *fiber.Ctx) error {
	count, err := h.svc.LoginCount(c.UserContext(), currentUser(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"count": count})
}

func (h *handlers) loginHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	events, err := h.svc.LoginHistory(c.UserContext(), currentUser(c), limit)
	if err != nil {
		return h.fail(c, err)
	}
	logins := make([]loginEntry, 0, len(events))
	for _, e := range events {
		logins = append(logins, loginEntry{LoginTime: e.At.UTC(), IPAddress: e.IPAddress, UserAgent: e.UserAgent})
	}
	return c.JSON(fiber.Map{"logins": logins})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
}

// fail maps service errors to status codes.
func (h *handlers) fail(c *fiber.Ctx, err error) error {
	var verr *account.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": verr.Message, "fields": verr.Fields})
	case errors.Is(err, account.ErrUsernameTaken):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already exists"})
	case errors.Is(err, account.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	case errors.Is(err, account.ErrAccountDisabled):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Account is disabled"})
	case errors.Is(err, account.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	h.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
}
