package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/verte-zerg/stundenplan/internal/account"
	"github.com/verte-zerg/stundenplan/internal/client"
	"github.com/verte-zerg/stundenplan/internal/config"
	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/schedule"
	"github.com/verte-zerg/stundenplan/internal/server"
	"github.com/verte-zerg/stundenplan/internal/store"
)

func TestDefaultConfigTemplateDecodes(t *testing.T) {
	var cfg config.FileConfig
	if _, err := toml.Decode(defaultConfigTemplate(), &cfg); err != nil {
		t.Fatalf("template is not valid TOML: %v", err)
	}
	if cfg.Dashboard.ShowSeconds != nil || cfg.Server.Addr != nil {
		t.Fatalf("template should only contain comments, got %+v", cfg)
	}
}

func TestMergePreferencesKeepsExplicitFlags(t *testing.T) {
	cmd := newRootCmd()
	if err := cmd.Flags().Set("dark", "true"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	local := model.Preferences{DarkMode: true, SoundEnabled: true}
	stored := model.Preferences{ShowSeconds: true, NotificationsEnabled: true}

	got := mergePreferences(cmd, local, stored)
	want := model.Preferences{DarkMode: true, ShowSeconds: true, NotificationsEnabled: true}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestApplyScheduleData(t *testing.T) {
	tt := schedule.DefaultTimetable()

	if got := applyScheduleData(tt, nil); got.Week[0][1] != tt.Week[0][1] {
		t.Fatalf("empty data should keep the week")
	}

	week := schedule.DefaultWeek()
	week[0][0] = "BS"
	data, err := json.Marshal(model.ScheduleData{Week: week})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := applyScheduleData(tt, data); got.Week.Code(0, 0) != "BS" {
		t.Fatalf("expected stored week to be applied, got %q", got.Week.Code(0, 0))
	}

	bad, err := json.Marshal(model.ScheduleData{Week: [][]string{{"MA"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got := applyScheduleData(tt, bad); got.Week.Code(0, 0) != "" {
		t.Fatalf("invalid stored week should be ignored")
	}
	if got := applyScheduleData(tt, json.RawMessage(`not json`)); len(got.Week) != schedule.SchoolDays {
		t.Fatalf("broken data should be ignored")
	}
}

// loggedIn starts a service with user anna and stores her session in a
// temporary XDG data dir.
func loggedIn(t *testing.T) (*client.Client, string) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	st, err := store.Open(filepath.Join(t.TempDir(), "stundenplan.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	svc := account.NewService(st, account.NewTokens("test-secret", time.Hour), account.WithBcryptCost(bcrypt.MinCost))
	ts := httptest.NewServer(adaptor.FiberApp(server.New(svc, zap.NewNop(), server.Config{Ping: st.Ping})))
	t.Cleanup(ts.Close)

	ctx := context.Background()
	c := client.New(ts.URL)
	if _, err := c.Signup(ctx, client.SignupRequest{Username: "anna", Password: "secret1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	res, err := c.Login(ctx, "anna", "secret1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	sess := client.Session{URL: ts.URL, Username: "anna", Token: res.Token, ExpiresAt: res.ExpiresAt}
	if err := client.SaveSession(config.DefaultSessionPath(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return c, ts.URL
}

func feedStdin(t *testing.T, input string) {
	t.Helper()
	stdinReader = bufio.NewReader(strings.NewReader(input))
	t.Cleanup(func() { stdinReader = nil })
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPasswdCommand(t *testing.T) {
	c, _ := loggedIn(t)
	feedStdin(t, "secret1\nsecret2\nsecret2\n")

	if _, err := runCmd(t, "passwd"); err != nil {
		t.Fatalf("passwd: %v", err)
	}
	ctx := context.Background()
	if _, err := c.Login(ctx, "anna", "secret1"); err == nil {
		t.Fatalf("old password should be rejected")
	}
	if _, err := c.Login(ctx, "anna", "secret2"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPasswdCommandRejectsMismatch(t *testing.T) {
	c, _ := loggedIn(t)
	feedStdin(t, "secret1\nsecret2\nsecret3\n")

	if _, err := runCmd(t, "passwd"); err == nil || !strings.Contains(err.Error(), "do not match") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	if _, err := c.Login(context.Background(), "anna", "secret1"); err != nil {
		t.Fatalf("password should be unchanged: %v", err)
	}
}

func TestWhoamiListsRecentLogins(t *testing.T) {
	loggedIn(t)

	out, err := runCmd(t, "whoami", "--history", "3")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	for _, want := range []string{"Username:   anna", "Logins:     1", "Recent logins:"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestCheckService(t *testing.T) {
	_, url := loggedIn(t)
	if err := checkService(url); err != nil {
		t.Fatalf("check service: %v", err)
	}

	ts := httptest.NewServer(nil)
	dead := ts.URL
	ts.Close()
	if err := checkService(dead); err == nil {
		t.Fatalf("expected an error for an unreachable service")
	}
}

func TestFormatLoginEvent(t *testing.T) {
	at := time.Date(2024, 1, 1, 7, 30, 0, 0, time.Local)
	got := formatLoginEvent(model.LoginEvent{At: at, IPAddress: "10.0.0.1"})
	if got != "  2024-01-01 07:30  10.0.0.1" {
		t.Fatalf("unexpected line %q", got)
	}
}
