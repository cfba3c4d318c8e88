package weekview

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/stundenplan/internal/schedule"
)

// RenderStatus writes a one-shot plain-text view of a snapshot.
func RenderStatus(w io.Writer, snap schedule.Snapshot, tt schedule.Timetable, seconds bool) error {
	head := Describe(snap, tt)
	lines := []string{
		DayName(snap.Day) + " " + FormatClock(snap.Now, seconds),
		head.Pill + "  " + head.Timer,
		head.Meta,
		fmt.Sprintf("Tag %d%% · Woche %d%%", snap.DayProgress, snap.WeekProgress),
		fmt.Sprintf("Lektionen %d · verbleibend %d", snap.Lessons.Total, snap.Lessons.Remaining),
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}
