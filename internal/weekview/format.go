// Package weekview renders timetables and dashboard states as text and images.
package weekview

import (
	"fmt"
	"time"

	"github.com/verte-zerg/stundenplan/internal/schedule"
)

// WarnSeconds is the countdown threshold at which the timer is highlighted.
const WarnSeconds = 60

var dayNames = [...]string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"}

var dayShort = [...]string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

// DayName returns the German weekday name for a day index (0=Monday).
func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return ""
	}
	return dayNames[day]
}

// FormatClock renders HH:MM, or HH:MM:SS when seconds is set.
func FormatClock(t time.Time, seconds bool) string {
	if seconds {
		return t.Format("15:04:05")
	}
	return t.Format("15:04")
}

// FormatCountdown renders whole seconds as mm:ss; minutes are not wrapped at 60.
func FormatCountdown(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// Headline is the textual summary of a snapshot.
type Headline struct {
	Timer   string
	Pill    string
	Meta    string
	Warning bool
}

// Describe turns a snapshot into the timer, pill and meta texts.
func Describe(snap schedule.Snapshot, tt schedule.Timetable) Headline {
	st := snap.State
	switch st.Kind {
	case schedule.Lesson:
		slot := tt.Slots[st.Slot]
		return Headline{
			Timer:   FormatCountdown(snap.Remaining),
			Pill:    tt.Names.Label(st.Subject),
			Meta:    slot.Start.String() + " — " + slot.End.String(),
			Warning: snap.Remaining <= WarnSeconds,
		}
	case schedule.Break:
		meta := "Pause"
		if st.Subject != "" {
			meta = "Nächste: " + tt.Names.Label(st.Subject)
		}
		return Headline{Timer: FormatCountdown(snap.Remaining), Pill: "Pause", Meta: meta}
	case schedule.Weekend:
		return Headline{Timer: "—", Pill: "Wochenende", Meta: "Geniesse deine freie Zeit"}
	default:
		return Headline{Timer: "—", Pill: "Keine Lektion", Meta: "Schultag vorbei oder noch nicht gestartet"}
	}
}
