// Package client talks to the stundenplan account service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/stundenplan/internal/model"
)

// ErrUnauthorized is wrapped by APIError for 401 and 403 answers.
var ErrUnauthorized = errors.New("not logged in or session expired")

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("service returned %d", e.Status)
	}
	return fmt.Sprintf("service returned %d: %s", e.Status, e.Message)
}

// Unwrap lets callers match authentication failures with errors.Is.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return ErrUnauthorized
	}
	return nil
}

// Client is a small JSON client for the /api routes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User is the account summary returned by login.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
}

// LoginResult is the answer to a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      User      `json:"user"`
}

// SignupRequest is the signup body.
type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type settingsBody struct {
	UserID               int64   `json:"user_id"`
	SoundEnabled         bool    `json:"sound_enabled"`
	Theme                string  `json:"theme"`
	ShowSeconds          bool    `json:"show_seconds"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	ScheduleData         *string `json:"schedule_data"`
}

type settingsUpdate struct {
	SoundEnabled         bool            `json:"soundEnabled"`
	Theme                string          `json:"theme"`
	ShowSeconds          bool            `json:"showSeconds"`
	NotificationsEnabled bool            `json:"notificationsEnabled"`
	ScheduleData         json.RawMessage `json:"scheduleData,omitempty"`
}

type loginEntry struct {
	LoginTime time.Time `json:"login_time"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", out.Status)
	}
	return nil
}

// Signup creates an account and returns its id.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (int64, error) {
	var out struct {
		UserID int64 `json:"userId"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/signup", req, &out); err != nil {
		return 0, err
	}
	return out.UserID, nil
}

// Login exchanges credentials for a token; the client keeps using the new token.
func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.Token == "" {
		return LoginResult{}, fmt.Errorf("missing token in login response")
	}
	c.token = out.Token
	return out, nil
}

// Profile fetches the logged-in user's profile.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out); err != nil {
		return model.Profile{}, err
	}
	return out, nil
}

// Settings fetches the stored settings; ok is false when the service has none.
func (c *Client) Settings(ctx context.Context) (settings model.Settings, ok bool, err error) {
	var out settingsBody
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &out); err != nil {
		return model.Settings{}, false, err
	}
	if out.UserID == 0 && out.Theme == "" {
		return model.Settings{}, false, nil
	}
	settings = model.Settings{
		UserID:               out.UserID,
		SoundEnabled:         out.SoundEnabled,
		Theme:                out.Theme,
		ShowSeconds:          out.ShowSeconds,
		NotificationsEnabled: out.NotificationsEnabled,
	}
	if out.ScheduleData != nil && *out.ScheduleData != "" {
		settings.ScheduleData = json.RawMessage(*out.ScheduleData)
	}
	return settings, true, nil
}

// SaveSettings replaces the stored settings.
func (c *Client) SaveSettings(ctx context.Context, settings model.Settings) error {
	body := settingsUpdate{
		SoundEnabled:         settings.SoundEnabled,
		Theme:                settings.Theme,
		ShowSeconds:          settings.ShowSeconds,
		NotificationsEnabled: settings.NotificationsEnabled,
		ScheduleData:         settings.ScheduleData,
	}
	return c.do(ctx, http.MethodPut, "/api/settings", body, nil)
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPut, "/api/password", body, nil)
}

// LoginCount returns how often the user has logged in.
func (c *Client) LoginCount(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/login-count", nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

// LoginHistory returns the most recent logins, newest first.
func (c *Client) LoginHistory(ctx context.Context, limit int) ([]model.LoginEvent, error) {
	path := "/api/login-history"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	var out struct {
		Logins []loginEntry `json:"logins"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	events := make([]model.LoginEvent, 0, len(out.Logins))
	for _, l := range out.Logins {
		events = append(events, model.LoginEvent{At: l.LoginTime, IPAddress: l.IPAddress, UserAgent: l.UserAgent})
	}
	return events, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		// Best-effort decode; some proxies answer with HTML.
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
