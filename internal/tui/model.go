// Package tui provides the Bubble Tea timetable dashboard.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/stundenplan/internal/model"
	"github.com/verte-zerg/stundenplan/internal/schedule"
	"github.com/verte-zerg/stundenplan/internal/weekview"
)

const (
	noticeDuration  = 10 * time.Second
	saveTimeout     = 5 * time.Second
	defaultBarWidth = 30
	maxBarWidth     = 48
)

// SettingsSaver persists preference changes made in the dashboard.
type SettingsSaver interface {
	SavePreferences(ctx context.Context, prefs model.Preferences) error
}

// Options configures the dashboard.
type Options struct {
	Timetable   schedule.Timetable
	Preferences model.Preferences
	// Saver is nil when the dashboard runs offline.
	Saver SettingsSaver
	Now   func() time.Time
	// Bell receives the terminal bell on lesson end; defaults to stderr.
	Bell io.Writer
}

type tickMsg time.Time

type savedMsg struct {
	err error
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	tt    schedule.Timetable
	prefs model.Preferences
	saver SettingsSaver
	now   func() time.Time
	bell  io.Writer

	snap    schedule.Snapshot
	hasSnap bool

	styles  styles
	keys    keyMap
	help    help.Model
	dayBar  progress.Model
	weekBar progress.Model

	notice      string
	noticeUntil time.Time
	errMsg      string

	width  int
	height int
}

// NewModel constructs a dashboard model.
func NewModel(opts Options) *Model {
	m := &Model{
		tt:    opts.Timetable,
		prefs: opts.Preferences,
		saver: opts.Saver,
		now:   opts.Now,
		bell:  opts.Bell,
		keys:  newKeyMap(),
		help:  help.New(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.bell == nil {
		m.bell = os.Stderr
	}
	m.applyTheme()
	m.refresh(m.now())
	return m
}

// Preferences returns the current dashboard preferences.
func (m *Model) Preferences() model.Preferences {
	return m.prefs
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resizeBars()
		return m, nil
	case tickMsg:
		m.refresh(m.now())
		return m, tick()
	case savedMsg:
		if msg.err != nil {
			m.errMsg = "Einstellungen nicht gespeichert: " + msg.err.Error()
		} else {
			m.errMsg = ""
		}
		return m, nil
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Theme):
			m.prefs.DarkMode = !m.prefs.DarkMode
			m.applyTheme()
			return m, m.save()
		case key.Matches(msg, m.keys.Seconds):
			m.prefs.ShowSeconds = !m.prefs.ShowSeconds
			return m, m.save()
		case key.Matches(msg, m.keys.Sound):
			m.prefs.SoundEnabled = !m.prefs.SoundEnabled
			if m.prefs.SoundEnabled {
				m.ring()
			}
			return m, m.save()
		case key.Matches(msg, m.keys.Notifications):
			m.prefs.NotificationsEnabled = !m.prefs.NotificationsEnabled
			return m, m.save()
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) refresh(now time.Time) {
	prev, had := m.snap, m.hasSnap
	m.snap = m.tt.Snapshot(now)
	m.hasSnap = true
	if had && lessonEnded(prev.State, m.snap.State) {
		m.onLessonEnd(prev.State, m.snap.State, now)
	}
	if !m.noticeUntil.IsZero() && !now.Before(m.noticeUntil) {
		m.notice = ""
		m.noticeUntil = time.Time{}
	}
}

// lessonEnded reports whether the lesson in prev is no longer running in cur.
func lessonEnded(prev, cur schedule.State) bool {
	if prev.Kind != schedule.Lesson {
		return false
	}
	return cur.Kind != schedule.Lesson || cur.Slot != prev.Slot
}

func (m *Model) onLessonEnd(prev, cur schedule.State, now time.Time) {
	if m.prefs.SoundEnabled {
		m.ring()
	}
	if !m.prefs.NotificationsEnabled {
		return
	}
	notice := "Lektion vorbei: " + m.tt.Names.Label(prev.Subject)
	if cur.Kind == schedule.Break && cur.Subject != "" {
		notice += " · Nächste: " + m.tt.Names.Label(cur.Subject)
	}
	m.notice = notice
	m.noticeUntil = now.Add(noticeDuration)
}

func (m *Model) ring() {
	// Best-effort bell.
	_, _ = io.WriteString(m.bell, "\a")
}

func (m *Model) save() tea.Cmd {
	if m.saver == nil {
		return nil
	}
	saver, prefs := m.saver, m.prefs
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		return savedMsg{err: saver.SavePreferences(ctx, prefs)}
	}
}

func (m *Model) applyTheme() {
	m.styles = newStyles(m.prefs.DarkMode)
	width := m.barWidth()
	m.dayBar = progress.New(progress.WithSolidFill(m.styles.palette.dayBar), progress.WithoutPercentage(), progress.WithWidth(width))
	m.weekBar = progress.New(progress.WithSolidFill(m.styles.palette.weekBar), progress.WithoutPercentage(), progress.WithWidth(width))
}

func (m *Model) barWidth() int {
	if m.width == 0 {
		return defaultBarWidth
	}
	w := m.width - 24
	if w > maxBarWidth {
		w = maxBarWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) resizeBars() {
	width := m.barWidth()
	m.dayBar.Width = width
	m.weekBar.Width = width
}

// View implements tea.Model.
func (m *Model) View() string {
	s := m.styles
	head := weekview.Describe(m.snap, m.tt)

	header := s.clock.Render(weekview.FormatClock(m.snap.Now, m.prefs.ShowSeconds)) + "  " +
		s.day.Render(weekview.DayName(m.snap.Day))

	timerStyle := s.timer
	if head.Warning {
		timerStyle = s.warning
	}
	pillStyle := s.pill
	switch m.snap.State.Kind {
	case schedule.Break:
		pillStyle = s.pause
	case schedule.Weekend, schedule.NoActivity:
		pillStyle = s.idle
	}
	current := lipgloss.JoinVertical(lipgloss.Left,
		timerStyle.Render(head.Timer),
		pillStyle.Render(head.Pill),
		s.meta.Render(head.Meta),
	)

	stats := lipgloss.JoinVertical(lipgloss.Left,
		m.renderBar("Tag", m.dayBar, m.snap.DayProgress),
		m.renderBar("Woche", m.weekBar, m.snap.WeekProgress),
		s.label.Render("Lektionen ")+s.value.Render(fmt.Sprint(m.snap.Lessons.Total))+
			s.label.Render("  verbleibend ")+s.value.Render(fmt.Sprint(m.snap.Lessons.Remaining)),
	)

	sections := []string{
		header,
		s.card.Render(current),
		stats,
		s.label.Render("Heute"),
		m.renderToday(),
	}
	if m.notice != "" {
		sections = append(sections, s.notice.Render(m.notice))
	}
	if m.errMsg != "" {
		sections = append(sections, s.errText.Render(m.errMsg))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	footer := m.help.View(m.keys)

	if m.width == 0 || m.height == 0 {
		return content + "\n" + footer
	}
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-1, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) renderBar(label string, bar progress.Model, percent int) string {
	return m.styles.label.Render(runewidth.FillRight(label, 6)) +
		bar.ViewAs(float64(percent)/100) +
		m.styles.value.Render(fmt.Sprintf(" %3d%%", percent))
}

func (m *Model) renderToday() string {
	if !schedule.IsSchoolDay(m.snap.Day) {
		return m.styles.meta.Render("Wochenende!")
	}
	entries := m.tt.Day(m.snap.Day)
	if len(entries) == 0 {
		return m.styles.meta.Render("Heute keine Lektionen")
	}
	active := -1
	if m.snap.State.Kind == schedule.Lesson {
		active = m.snap.State.Slot
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		line := fmt.Sprintf("%s–%s  %s %s", e.Start, e.End, runewidth.FillRight(e.Subject, 4), m.tt.Names.Label(e.Subject))
		if e.Slot == active {
			lines = append(lines, m.styles.current.Render("▸ "+line))
			continue
		}
		lines = append(lines, m.styles.entry.Render("  "+line))
	}
	return strings.Join(lines, "\n")
}
