// Package schedule resolves the current lesson or break from a weekly timetable.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a time of day measured in minutes since midnight.
type Clock int

// ParseClock parses an "HH:MM" string.
func ParseClock(value string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", value)
	}
	return Clock(h*60 + m), nil
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant of the clock on the calendar day of ref, in ref's location.
func (c Clock) On(ref time.Time) time.Time {
	y, mo, d := ref.Date()
	return time.Date(y, mo, d, int(c)/60, int(c)%60, 0, 0, ref.Location())
}

// Slot is a fixed daily lesson interval.
type Slot struct {
	Start Clock
	End   Clock
}

// Slots is the ordered list of lesson intervals shared by all weekdays.
type Slots []Slot

// ParseSlots converts [start, end] string pairs into Slots and validates ordering.
func ParseSlots(pairs [][]string) (Slots, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("slot list is empty")
	}
	slots := make(Slots, 0, len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return nil, fmt.Errorf("slot %d: expected [start, end], got %d values", i+1, len(pair))
		}
		start, err := ParseClock(pair[0])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
		end, err := ParseClock(pair[1])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i+1, err)
		}
		slots = append(slots, Slot{Start: start, End: end})
	}
	if err := slots.Validate(); err != nil {
		return nil, err
	}
	return slots, nil
}

// Validate checks that intervals are non-empty, non-overlapping and strictly increasing.
func (s Slots) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("slot list is empty")
	}
	for i, slot := range s {
		if slot.End <= slot.Start {
			return fmt.Errorf("slot %d: end %s is not after start %s", i+1, slot.End, slot.Start)
		}
		if i > 0 && slot.Start < s[i-1].End {
			return fmt.Errorf("slot %d: starts at %s before slot %d ends at %s", i+1, slot.Start, i, s[i-1].End)
		}
	}
	return nil
}

// Pairs returns the slots as [start, end] strings.
func (s Slots) Pairs() [][]string {
	out := make([][]string, len(s))
	for i, slot := range s {
		out[i] = []string{slot.Start.String(), slot.End.String()}
	}
	return out
}

// DefaultSlots returns the twelve standard lesson slots.
func DefaultSlots() Slots {
	slots, err := ParseSlots([][]string{
		{"07:30", "08:15"}, {"08:20", "09:05"}, {"09:10", "09:55"},
		{"10:15", "11:00"}, {"11:05", "11:50"}, {"12:00", "12:45"},
		{"12:55", "13:40"}, {"13:45", "14:30"}, {"14:35", "15:20"},
		{"15:30", "16:15"}, {"16:20", "17:05"}, {"17:10", "17:55"},
	})
	if err != nil {
		panic(err)
	}
	return slots
}
