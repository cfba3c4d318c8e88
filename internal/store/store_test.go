package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"testing"
	"time"

	"github.com/verte-zerg/stundenplan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "stundenplan.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func createTestUser(t *testing.T, st *Store, username string) int64 {
	t.Helper()
	id, err := st.CreateUser(context.Background(), model.User{
		Username:     username,
		PasswordHash: "hash",
		DisplayName:  username,
		CreatedAt:    time.Unix(1700000000, 0),
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return id
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stundenplan.db")
	for i := 0; i < 2; i++ {
		st, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := st.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestCreateUserAndLookup(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, st, "anna")

	user, err := st.GetUserByUsername(ctx, "anna")
	if err != nil {
		t.Fatalf("get by username: %v", err)
	}
	if user.ID != id || !user.IsActive || user.DisplayName != "anna" || user.Email != "" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if !user.CreatedAt.Equal(time.Unix(1700000000, 0)) || user.LastLogin != nil {
		t.Fatalf("unexpected timestamps: %+v", user)
	}
	if _, err := st.GetUserByID(ctx, id+100); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.CreateUser(ctx, model.User{Username: "anna", PasswordHash: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate, got %v", err)
	}
}

func TestDefaultSettingsCreatedWithUser(t *testing.T) {
	st := openTestStore(t)
	id := createTestUser(t, st, "ben")
	settings, err := st.GetSettings(context.Background(), id)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if !settings.SoundEnabled || settings.Theme != model.ThemeLight || settings.ShowSeconds || settings.ScheduleData != nil {
		t.Fatalf("unexpected default settings: %+v", settings)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, st, "carla")

	data, err := json.Marshal(model.ScheduleData{Week: [][]string{{"MA"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := model.Settings{
		UserID:               id,
		SoundEnabled:         false,
		Theme:                model.ThemeDark,
		ShowSeconds:          true,
		NotificationsEnabled: true,
		ScheduleData:         data,
	}
	if err := st.SaveSettings(ctx, want); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err := st.GetSettings(ctx, id)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.SoundEnabled || got.Theme != model.ThemeDark || !got.ShowSeconds || !got.NotificationsEnabled {
		t.Fatalf("unexpected settings: %+v", got)
	}
	if string(got.ScheduleData) != string(data) {
		t.Fatalf("expected schedule data %s, got %s", data, got.ScheduleData)
	}

	want.ScheduleData = nil
	if err := st.SaveSettings(ctx, want); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err = st.GetSettings(ctx, id)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.ScheduleData != nil {
		t.Fatalf("expected cleared schedule data, got %s", got.ScheduleData)
	}
}

func TestRecordLoginAndCount(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, st, "dora")

	base := time.Unix(1700000000, 0)
	for i := 0; i < 3; i++ {
		err := st.RecordLogin(ctx, model.LoginEvent{
			UserID:    id,
			At:        base.Add(time.Duration(i) * time.Hour),
			IPAddress: "127.0.0.1",
			UserAgent: "test",
		})
		if err != nil {
			t.Fatalf("record login: %v", err)
		}
	}
	count, err := st.CountLogins(ctx, id)
	if err != nil {
		t.Fatalf("count logins: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 logins, got %d", count)
	}
	events, err := st.ListLogins(ctx, id, 2)
	if err != nil {
		t.Fatalf("list logins: %v", err)
	}
	if len(events) != 2 || !events[0].At.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected events: %+v", events)
	}
	user, err := st.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.LastLogin == nil || !user.LastLogin.Equal(base.Add(2*time.Hour)) {
		t.Fatalf("unexpected last login: %v", user.LastLogin)
	}
	if err := st.RecordLogin(ctx, model.LoginEvent{UserID: id + 1, At: base}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestSetActiveAndUpdatePassword(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	id := createTestUser(t, st, "emil")
	if err := st.SetActive(ctx, id, false); err != nil {
		t.Fatalf("set active: %v", err)
	}
	if err := st.UpdatePassword(ctx, id, "new-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	user, err := st.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.IsActive || user.PasswordHash != "new-hash" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestRebindForPostgres(t *testing.T) {
	st := &Store{driver: DriverPostgres}
	got := st.rebind(`SELECT a FROM t WHERE b = ? AND c = ?`)
	if got != `SELECT a FROM t WHERE b = $1 AND c = $2` {
		t.Fatalf("unexpected rebind: %s", got)
	}
	if got := st.rebind(`INSERT INTO t (a, b, c) VALUES (?, ?, ?)`); got != `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)` {
		t.Fatalf("unexpected rebind: %s", got)
	}
	lite := &Store{driver: DriverSQLite}
	if lite.rebind("?") != "?" {
		t.Fatalf("sqlite queries must not be rewritten")
	}
}

var createRe = regexp.MustCompile(`CREATE (?:TABLE|INDEX) IF NOT EXISTS (\w+)`)

func migrationObjects(t *testing.T, dir string) []string {
	t.Helper()
	files, err := fs.Glob(migrations, dir+"/*.sql")
	if err != nil {
		t.Fatalf("glob %s: %v", dir, err)
	}
	var names []string
	for _, file := range files {
		data, err := fs.ReadFile(migrations, file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		for _, m := range createRe.FindAllStringSubmatch(string(data), -1) {
			names = append(names, filepath.Base(file)+":"+m[1])
		}
	}
	sort.Strings(names)
	return names
}

func TestMigrationsMatchAcrossDialects(t *testing.T) {
	lite := migrationObjects(t, "migrations/sqlite")
	pg := migrationObjects(t, "migrations/postgres")
	if len(lite) == 0 {
		t.Fatalf("no sqlite migrations found")
	}
	if fmt.Sprint(lite) != fmt.Sprint(pg) {
		t.Fatalf("dialects differ:\nsqlite:   %v\npostgres: %v", lite, pg)
	}
}

// TestPostgresStore runs against a real server when STUNDENPLAN_TEST_PG_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STUNDENPLAN_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("STUNDENPLAN_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	st, err := OpenDSN(ctx, DriverPostgres, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	if err := st.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	username := fmt.Sprintf("pg%d", time.Now().UnixNano())
	id := createTestUser(t, st, username)
	if _, err := st.CreateUser(ctx, model.User{Username: username, PasswordHash: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate, got %v", err)
	}
	user, err := st.GetUserByUsername(ctx, username)
	if err != nil || user.ID != id {
		t.Fatalf("get by username: %+v, %v", user, err)
	}

	data := json.RawMessage(`{"week":[["MA"]]}`)
	if err := st.SaveSettings(ctx, model.Settings{UserID: id, Theme: model.ThemeDark, ScheduleData: data}); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	settings, err := st.GetSettings(ctx, id)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.Theme != model.ThemeDark || string(settings.ScheduleData) != string(data) {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	at := time.Unix(1700000000, 0)
	if err := st.RecordLogin(ctx, model.LoginEvent{UserID: id, At: at, IPAddress: "127.0.0.1"}); err != nil {
		t.Fatalf("record login: %v", err)
	}
	count, err := st.CountLogins(ctx, id)
	if err != nil || count != 1 {
		t.Fatalf("count logins: %d, %v", count, err)
	}
	events, err := st.ListLogins(ctx, id, 5)
	if err != nil || len(events) != 1 || !events[0].At.Equal(at) {
		t.Fatalf("list logins: %+v, %v", events, err)
	}
}
