package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/schedule"
)

type fakeSaver struct {
	saved []model.Preferences
	err   error
}

func (f *fakeSaver) SavePreferences(_ context.Context, prefs model.Preferences) error {
	f.saved = append(f.saved, prefs)
	return f.err
}

type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

// 2024-01-01 is a Monday.
func monday(hour, min, sec int) time.Time {
	return time.Date(2024, 1, 1, hour, min, sec, 0, time.Local)
}

func testTimetable(t *testing.T) schedule.Timetable {
	t.Helper()
	slots, err := schedule.ParseSlots([][]string{{"07:30", "08:15"}, {"08:20", "09:05"}})
	if err != nil {
		t.Fatalf("parse slots: %v", err)
	}
	week := schedule.Week{{"MA", "D"}, {"", "E"}, {"", ""}, {"F", ""}, {"G", "BS"}}
	tt, err := schedule.NewTimetable(slots, week, schedule.DefaultNames())
	if err != nil {
		t.Fatalf("new timetable: %v", err)
	}
	return tt
}

func newTestModel(t *testing.T, c *clock, prefs model.Preferences, saver SettingsSaver, bell *bytes.Buffer) *Model {
	t.Helper()
	return NewModel(Options{
		Timetable:   testTimetable(t),
		Preferences: prefs,
		Saver:       saver,
		Now:         c.now,
		Bell:        bell,
	})
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func TestViewShowsLesson(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	m := newTestModel(t, c, model.Preferences{}, nil, &bytes.Buffer{})
	out := m.View()
	want := []string{"07:45", "Montag", "30:00", "Mathematik", "07:30 — 08:15", "Lektionen 2", "verbleibend 2", "07:30–08:15", "16%"}
	if !containsAll(out, want) {
		t.Fatalf("view missing expected segments:\n%s", out)
	}
	if strings.Contains(out, "07:45:00") {
		t.Fatalf("seconds shown although disabled:\n%s", out)
	}
}

func TestViewBreakAndWeekend(t *testing.T) {
	c := &clock{t: monday(8, 17, 0)}
	m := newTestModel(t, c, model.Preferences{}, nil, &bytes.Buffer{})
	if out := m.View(); !containsAll(out, []string{"Pause", "Nächste: Deutsch", "03:00"}) {
		t.Fatalf("unexpected break view:\n%s", out)
	}

	c.t = monday(10, 0, 0).AddDate(0, 0, 6)
	m.Update(tickMsg(c.t))
	if out := m.View(); !containsAll(out, []string{"Sonntag", "Wochenende", "Geniesse deine freie Zeit"}) {
		t.Fatalf("unexpected weekend view:\n%s", out)
	}
}

func TestTickReschedules(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	m := newTestModel(t, c, model.Preferences{}, nil, &bytes.Buffer{})
	if m.Init() == nil {
		t.Fatalf("expected tick command from Init")
	}
	c.t = monday(7, 46, 0)
	_, cmd := m.Update(tickMsg(c.t))
	if cmd == nil {
		t.Fatalf("expected next tick command")
	}
	if !strings.Contains(m.View(), "29:00") {
		t.Fatalf("countdown not refreshed:\n%s", m.View())
	}
}

func TestToggleSavesPreferences(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	saver := &fakeSaver{}
	m := newTestModel(t, c, model.Preferences{SoundEnabled: true}, saver, &bytes.Buffer{})

	_, cmd := m.Update(runeKey('t'))
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	msg := cmd()
	if _, ok := msg.(savedMsg); !ok {
		t.Fatalf("expected savedMsg, got %T", msg)
	}
	if len(saver.saved) != 1 || !saver.saved[0].DarkMode || !saver.saved[0].SoundEnabled {
		t.Fatalf("unexpected saved prefs: %+v", saver.saved)
	}

	_, cmd = m.Update(runeKey('s'))
	cmd()
	if !m.Preferences().ShowSeconds {
		t.Fatalf("expected seconds enabled")
	}
	if !strings.Contains(m.View(), "07:45:00") {
		t.Fatalf("expected seconds in clock:\n%s", m.View())
	}

	saver.err = errors.New("offline")
	_, cmd = m.Update(runeKey('n'))
	m.Update(cmd())
	if !strings.Contains(m.View(), "Einstellungen nicht gespeichert: offline") {
		t.Fatalf("expected save error in view:\n%s", m.View())
	}
}

func TestToggleWithoutSaver(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	m := newTestModel(t, c, model.Preferences{}, nil, &bytes.Buffer{})
	if _, cmd := m.Update(runeKey('t')); cmd != nil {
		t.Fatalf("expected no command when offline")
	}
	if !m.Preferences().DarkMode {
		t.Fatalf("expected dark mode toggled")
	}
}

func TestLessonEndRingsAndNotifies(t *testing.T) {
	c := &clock{t: monday(8, 14, 59)}
	bell := &bytes.Buffer{}
	m := newTestModel(t, c, model.Preferences{SoundEnabled: true, NotificationsEnabled: true}, nil, bell)

	c.t = monday(8, 15, 0)
	m.Update(tickMsg(c.t))
	if bell.String() != "\a" {
		t.Fatalf("expected one bell, got %q", bell.String())
	}
	if !strings.Contains(m.View(), "Lektion vorbei: Mathematik · Nächste: Deutsch") {
		t.Fatalf("expected notice in view:\n%s", m.View())
	}

	c.t = monday(8, 15, 1)
	m.Update(tickMsg(c.t))
	if bell.Len() != 1 {
		t.Fatalf("bell rang again during break")
	}

	c.t = c.t.Add(noticeDuration)
	m.Update(tickMsg(c.t))
	if strings.Contains(m.View(), "Lektion vorbei") {
		t.Fatalf("notice not cleared:\n%s", m.View())
	}
}

func TestLessonEndSilentWhenDisabled(t *testing.T) {
	c := &clock{t: monday(8, 14, 59)}
	bell := &bytes.Buffer{}
	m := newTestModel(t, c, model.Preferences{}, nil, bell)

	c.t = monday(8, 15, 0)
	m.Update(tickMsg(c.t))
	if bell.Len() != 0 {
		t.Fatalf("expected no bell, got %q", bell.String())
	}
	if strings.Contains(m.View(), "Lektion vorbei") {
		t.Fatalf("unexpected notice:\n%s", m.View())
	}
}

func TestQuit(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	m := newTestModel(t, c, model.Preferences{}, nil, &bytes.Buffer{})
	_, cmd := m.Update(runeKey('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

func TestLessonEnded(t *testing.T) {
	lesson := schedule.State{Kind: schedule.Lesson, Slot: 0}
	cases := []struct {
		prev, cur schedule.State
		want      bool
	}{
		{lesson, lesson, false},
		{lesson, schedule.State{Kind: schedule.Break, Slot: 0}, true},
		{lesson, schedule.State{Kind: schedule.Lesson, Slot: 1}, true},
		{schedule.State{Kind: schedule.Break}, schedule.State{Kind: schedule.Lesson, Slot: 1}, false},
	}
	for i, tc := range cases {
		if got := lessonEnded(tc.prev, tc.cur); got != tc.want {
			t.Fatalf("case %d: expected %v, got %v", i, tc.want, got)
		}
	}
}

type failingWriter struct{ writes int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.writes++
	return 0, errors.New("closed")
}

func TestSoundToggleIgnoresBellErrors(t *testing.T) {
	c := &clock{t: monday(7, 45, 0)}
	bell := &failingWriter{}
	m := NewModel(Options{
		Timetable: testTimetable(t),
		Now:       c.now,
		Bell:      bell,
	})

	m.Update(runeKey('b'))
	if !m.Preferences().SoundEnabled || bell.writes != 1 {
		t.Fatalf("expected sound on and one bell attempt, got %+v, %d writes", m.Preferences(), bell.writes)
	}
	if strings.Contains(m.View(), "closed") {
		t.Fatalf("bell errors must not reach the view:\n%s", m.View())
	}
}
