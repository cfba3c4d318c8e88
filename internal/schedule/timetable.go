package schedule

import (
	"fmt"
	"time"
)

// Timetable bundles the slot layout, the week grid and subject labels for a session.
// It is treated as immutable; replace the whole value to change it.
type Timetable struct {
	Slots Slots
	Week  Week
	Names Names
}

// NewTimetable validates slots and week against each other.
func NewTimetable(slots Slots, week Week, names Names) (Timetable, error) {
	if err := slots.Validate(); err != nil {
		return Timetable{}, fmt.Errorf("invalid slots: %w", err)
	}
	if err := week.Validate(len(slots)); err != nil {
		return Timetable{}, fmt.Errorf("invalid week: %w", err)
	}
	if names == nil {
		names = Names{}
	}
	return Timetable{Slots: slots, Week: week.Clone(), Names: names}, nil
}

// DefaultTimetable returns the built-in slots, week and names.
func DefaultTimetable() Timetable {
	return Timetable{Slots: DefaultSlots(), Week: DefaultWeek(), Names: DefaultNames()}
}

// WithWeek returns a copy of t using week, validated against t's slots.
func (t Timetable) WithWeek(week Week) (Timetable, error) {
	return NewTimetable(t.Slots, week, t.Names)
}

// Snapshot is everything the dashboard shows for one instant.
type Snapshot struct {
	Now          time.Time
	Day          int
	State        State
	Remaining    int
	DayProgress  int
	WeekProgress int
	Lessons      LessonCount
}

// Snapshot computes the display state at now.
func (t Timetable) Snapshot(now time.Time) Snapshot {
	st := Resolve(now, t.Slots, t.Week)
	day := DayIndex(now)
	dayProgress := DayProgress(now, t.Slots)
	return Snapshot{
		Now:          now,
		Day:          day,
		State:        st,
		Remaining:    Remaining(now, st),
		DayProgress:  dayProgress,
		WeekProgress: WeekProgressFor(day, dayProgress),
		Lessons:      CountLessons(now, t.Slots, t.Week),
	}
}

// Entry is one lesson in a day's list.
type Entry struct {
	Slot    int
	Start   Clock
	End     Clock
	Subject string
}

// Day lists the slots of a school day that carry a subject.
func (t Timetable) Day(day int) []Entry {
	if !IsSchoolDay(day) {
		return nil
	}
	var entries []Entry
	for i, slot := range t.Slots {
		code := t.Week.Code(day, i)
		if code == "" {
			continue
		}
		entries = append(entries, Entry{Slot: i, Start: slot.Start, End: slot.End, Subject: code})
	}
	return entries
}
