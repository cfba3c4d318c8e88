package schedule

import (
	"math"
	"time"
)

// LessonCount counts the day's lessons.
type LessonCount struct {
	Total     int
	Remaining int
}

// DayProgress returns the percentage (0..100) of the school day elapsed at now.
// Non-school days report 0.
func DayProgress(now time.Time, slots Slots) int {
	if !IsSchoolDay(DayIndex(now)) || len(slots) == 0 {
		return 0
	}
	dayStart := slots[0].Start.On(now)
	dayEnd := slots[len(slots)-1].End.On(now)
	if now.Before(dayStart) {
		return 0
	}
	if !now.Before(dayEnd) {
		return 100
	}
	ratio := float64(now.Sub(dayStart)) / float64(dayEnd.Sub(dayStart))
	return int(math.Round(ratio * 100))
}

// WeekProgress returns the percentage (0..100) of the school week elapsed at now.
func WeekProgress(now time.Time, slots Slots) int {
	return WeekProgressFor(DayIndex(now), DayProgress(now, slots))
}

// WeekProgressFor combines a day index and that day's progress percentage.
// Saturday and Sunday count as a finished week; other out-of-range indexes give 0.
func WeekProgressFor(day, dayProgress int) int {
	if !IsSchoolDay(day) {
		if day == 5 || day == 6 {
			return 100
		}
		return 0
	}
	ratio := (float64(day) + float64(dayProgress)/100) / SchoolDays
	return int(math.Round(ratio * 100))
}

// CountLessons counts slots with a subject today and those not yet over at now.
func CountLessons(now time.Time, slots Slots, week Week) LessonCount {
	day := DayIndex(now)
	if !IsSchoolDay(day) {
		return LessonCount{}
	}
	var count LessonCount
	for i, slot := range slots {
		if week.Code(day, i) == "" {
			continue
		}
		count.Total++
		if now.Before(slot.End.On(now)) {
			count.Remaining++
		}
	}
	return count
}
