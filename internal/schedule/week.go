package schedule

import "fmt"

// SchoolDays is the number of weekdays carrying lessons (Monday..Friday).
const SchoolDays = 5

// FreeCode marks a lesson slot without a subject code.
const FreeCode = "frei"

// Week maps day index (0=Monday) to subject codes aligned with Slots.
// An empty code means no lesson in that slot.
type Week [][]string

// DefaultWeek returns the built-in weekly timetable.
func DefaultWeek() Week {
	return Week{
		{"", "D", "MA", "MA", "NT", "", "", "E", "G", "MI", "BS", ""},
		{"", "E", "F", "D", "D", "", "", "MA", "Gg", "D", "", ""},
		{"MA", "MA", "Gg", "NT", "NT", "", "", "", "", "", "", ""},
		{"D", "F", "F", "WAH", "WAH", "WAH", "WAH", "BS", "BS", "", "", ""},
		{"", "Mu", "MA", "BG", "BG", "", "", "E", "RKE", "RKE", "", ""},
	}
}

// Validate checks there is one row per school day and every row has slotCount codes.
func (w Week) Validate(slotCount int) error {
	if len(w) != SchoolDays {
		return fmt.Errorf("week has %d days, expected %d", len(w), SchoolDays)
	}
	for i, row := range w {
		if len(row) != slotCount {
			return fmt.Errorf("day %d has %d slots, expected %d", i+1, len(row), slotCount)
		}
	}
	return nil
}

// Code returns the subject code for a day and slot, or "" when out of range.
func (w Week) Code(day, slot int) string {
	if day < 0 || day >= len(w) {
		return ""
	}
	row := w[day]
	if slot < 0 || slot >= len(row) {
		return ""
	}
	return row[slot]
}

// Clone returns a deep copy.
func (w Week) Clone() Week {
	out := make(Week, len(w))
	for i, row := range w {
		out[i] = append([]string(nil), row...)
	}
	return out
}
