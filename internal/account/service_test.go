package account

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/store"
)

func setup(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "stundenplan.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	svc := NewService(st, NewTokens("test-secret", time.Hour), WithBcryptCost(bcrypt.MinCost))
	return svc, st
}

func signup(t *testing.T, svc *Service, username, password string) int64 {
	t.Helper()
	id, err := svc.Signup(context.Background(), SignupInput{Username: username, Password: password})
	require.NoError(t, err)
	return id
}

func TestSignupValidation(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SignupInput
		msg  string
	}{
		{"missing password", SignupInput{Username: "anna"}, "Username and password are required"},
		{"missing username", SignupInput{Password: "secret1"}, "Username and password are required"},
		{"short username", SignupInput{Username: "ab", Password: "secret1"}, "Username must be 3-20 characters"},
		{"long username", SignupInput{Username: "abcdefghijklmnopqrstu", Password: "secret1"}, "Username must be 3-20 characters"},
		{"short password", SignupInput{Username: "anna", Password: "12345"}, "Password must be at least 6 characters"},
		{"bad email", SignupInput{Username: "anna", Password: "secret1", Email: "nope"}, "Email address is invalid"},
		{"bad characters", SignupInput{Username: "an na", Password: "secret1"}, "Username may only contain letters, digits, '.', '-' and '_'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.msg, verr.Message)
			assert.NotEmpty(t, verr.Fields)
		})
	}
}

func TestSignupNormalizesAndRejectsDuplicates(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()

	id := signup(t, svc, "Anna", "secret1")
	user, err := st.GetUserByUsername(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Anna", user.DisplayName)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	_, err = svc.Signup(ctx, SignupInput{Username: "ANNA", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	svc, st := setup(t)
	ctx := context.Background()
	id := signup(t, svc, "ben", "secret1")

	_, err := svc.Login(ctx, LoginInput{Username: "ben", Password: "wrong-pass"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "nobody", Password: "secret1"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "ben"}, ClientMeta{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	res, err := svc.Login(ctx, LoginInput{Username: "BEN", Password: "secret1"}, ClientMeta{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Equal(t, id, res.User.ID)
	require.NotNil(t, res.User.LastLogin)

	claims, err := svc.Authenticate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "ben", claims.Username)
	assert.NotEmpty(t, claims.ID)

	count, err := svc.LoginCount(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	history, err := svc.LoginHistory(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "10.0.0.1", history[0].IPAddress)

	require.NoError(t, st.SetActive(ctx, id, false))
	_, err = svc.Login(ctx, LoginInput{Username: "ben", Password: "secret1"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestTokenExpiry(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	signup(t, svc, "carla", "secret1")

	now := time.Now()
	svc = NewService(svc.repo, NewTokens("test-secret", time.Hour), WithBcryptCost(bcrypt.MinCost), WithClock(func() time.Time { return now }))
	res, err := svc.Login(ctx, LoginInput{Username: "carla", Password: "secret1"}, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour).Unix(), res.ExpiresAt.Unix())

	now = now.Add(2 * time.Hour)
	_, err = svc.Authenticate(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewTokens("other-secret", time.Hour)
	_, err = other.Parse(res.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSettingsRoundTrip(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := signup(t, svc, "dora", "secret1")

	settings, ok, err := svc.Settings(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ThemeLight, settings.Theme)

	data, err := json.Marshal(model.ScheduleData{Week: [][]string{{"MA", "D"}}})
	require.NoError(t, err)
	err = svc.UpdateSettings(ctx, id, SettingsInput{Theme: model.ThemeDark, ShowSeconds: true, ScheduleData: data})
	require.NoError(t, err)

	settings, ok, err = svc.Settings(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ThemeDark, settings.Theme)
	assert.True(t, settings.ShowSeconds)
	assert.False(t, settings.SoundEnabled)
	assert.JSONEq(t, string(data), string(settings.ScheduleData))

	err = svc.UpdateSettings(ctx, id, SettingsInput{Theme: "blue"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Theme must be light or dark", verr.Message)

	err = svc.UpdateSettings(ctx, id+99, SettingsInput{})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, ok, err = svc.Settings(ctx, id+99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChangePassword(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id := signup(t, svc, "emil", "secret1")

	err := svc.ChangePassword(ctx, id, PasswordInput{CurrentPassword: "wrong-pass", NewPassword: "secret2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, svc.ChangePassword(ctx, id, PasswordInput{CurrentPassword: "secret1", NewPassword: "secret2"}))
	_, err = svc.Login(ctx, LoginInput{Username: "emil", Password: "secret1"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, LoginInput{Username: "emil", Password: "secret2"}, ClientMeta{})
	assert.NoError(t, err)
}

func TestProfile(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	id, err := svc.Signup(ctx, SignupInput{Username: "fritz", Password: "secret1", Email: "fritz@example.com", DisplayName: "Fritz F."})
	require.NoError(t, err)

	profile, err := svc.Profile(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fritz", profile.Username)
	require.NotNil(t, profile.Email)
	assert.Equal(t, "fritz@example.com", *profile.Email)
	assert.Equal(t, "Fritz F.", profile.DisplayName)
	assert.Nil(t, profile.LastLogin)

	_, err = svc.Profile(ctx, id+1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
