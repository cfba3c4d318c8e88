package schedule

import "time"

// Kind tags a resolved State.
type Kind int

const (
	// NoActivity is a school day outside any lesson or break.
	NoActivity Kind = iota
	// Lesson is an active lesson slot (possibly a free period).
	Lesson
	// Break is the gap between two consecutive slots.
	Break
	// Weekend is Saturday or Sunday.
	Weekend
)

func (k Kind) String() string {
	switch k {
	case Lesson:
		return "lesson"
	case Break:
		return "break"
	case Weekend:
		return "weekend"
	default:
		return "none"
	}
}

// State is what is happening at a given instant.
//
// For Lesson, Slot is the active slot and Subject its code (FreeCode when empty).
// For Break, Slot is the slot the break follows and Subject the next slot's code.
type State struct {
	Kind    Kind
	Slot    int
	Start   time.Time
	End     time.Time
	Subject string
}

// DayIndex maps a weekday to Monday=0 .. Sunday=6.
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsSchoolDay reports whether the day index carries lessons.
func IsSchoolDay(day int) bool {
	return day >= 0 && day < SchoolDays
}

// Resolve determines the state at now. Slot boundaries are half-open.
func Resolve(now time.Time, slots Slots, week Week) State {
	day := DayIndex(now)
	if !IsSchoolDay(day) {
		return State{Kind: Weekend}
	}

	for i, slot := range slots {
		start := slot.Start.On(now)
		end := slot.End.On(now)
		if !now.Before(start) && now.Before(end) {
			subject := week.Code(day, i)
			if subject == "" {
				subject = FreeCode
			}
			return State{Kind: Lesson, Slot: i, Start: start, End: end, Subject: subject}
		}
	}

	for i := 0; i < len(slots)-1; i++ {
		end := slots[i].End.On(now)
		next := slots[i+1].Start.On(now)
		if !now.Before(end) && now.Before(next) {
			return State{Kind: Break, Slot: i, Start: end, End: next, Subject: week.Code(day, i+1)}
		}
	}

	return State{Kind: NoActivity}
}

// Remaining returns whole seconds left until the state ends, or 0 when it has no end.
func Remaining(now time.Time, st State) int {
	if st.Kind != Lesson && st.Kind != Break {
		return 0
	}
	left := st.End.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}
