// Package calendar holds the date arithmetic shared by the server pages and
// the terminal UI: Sunday-first month grids, hourly slots and keyboard
// movement across a grid of days.
package calendar

import (
	"fmt"
	"time"

	"taskflow/internal/dom"
)

// WeekLen is the number of days in a grid row.
const WeekLen = 7

// Hourly slots run from FirstSlotHour to LastSlotHour inclusive.
const (
	FirstSlotHour = 4
	LastSlotHour  = 22
)

// Month returns the weeks of year/month, Sunday first. Days outside the
// month are 0.
func Month(year int, month time.Month) [][]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := DaysIn(year, month)

	var weeks [][]int
	week := make([]int, WeekLen)
	col := int(first.Weekday())
	for d := 1; d <= days; d++ {
		week[col] = d
		col++
		if col == WeekLen {
			weeks = append(weeks, week)
			week = make([]int, WeekLen)
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}

// DaysIn returns the number of days in year/month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Prev returns the month before year/month.
func Prev(year int, month time.Month) (int, time.Month) {
	if month == time.January {
		return year - 1, time.December
	}
	return year, month - 1
}

// Next returns the month after year/month.
func Next(year int, month time.Month) (int, time.Month) {
	if month == time.December {
		return year + 1, time.January
	}
	return year, month + 1
}

// Slot is one hourly bucket of a day.
type Slot struct {
	Value string // "09:00", the form value
	Label string // "09:00 AM"
}

// Slots returns the hourly slots of a day.
func Slots() []Slot {
	slots := make([]Slot, 0, LastSlotHour-FirstSlotHour+1)
	for h := FirstSlotHour; h <= LastSlotHour; h++ {
		t := time.Date(2000, 1, 1, h, 0, 0, 0, time.UTC)
		slots = append(slots, Slot{Value: t.Format("15:04"), Label: t.Format("03:04 PM")})
	}
	return slots
}

// ParseSlot validates an "HH:MM" slot value.
func ParseSlot(s string) (time.Time, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time slot: %s", s)
	}
	return t, nil
}

// DayPath returns the page path of a day.
func DayPath(t time.Time) string {
	return fmt.Sprintf("/tasks/%d/%d/%d/", t.Year(), int(t.Month()), t.Day())
}

// ParseDayPath is the inverse of DayPath.
func ParseDayPath(p string) (time.Time, error) {
	var y, m, d int
	if _, err := fmt.Sscanf(p, "/tasks/%d/%d/%d/", &y, &m, &d); err != nil {
		return time.Time{}, fmt.Errorf("invalid day path: %s", p)
	}
	return Day(y, m, d)
}

// Day returns local midnight of y-m-d, rejecting dates that do not exist.
func Day(y, m, d int) (time.Time, error) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.Local)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, fmt.Errorf("invalid date: %d-%d-%d", y, m, d)
	}
	return t, nil
}

// MonthPath returns the calendar page path of a month.
func MonthPath(year int, month time.Month) string {
	return fmt.Sprintf("/?year=%d&month=%d", year, int(month))
}

// Move returns the grid index reached from index by key, clamped to
// [0, length-1]. ok is false for keys that do not move.
func Move(index, length int, key string) (next int, ok bool) {
	if length <= 0 {
		return index, false
	}
	switch key {
	case dom.KeyArrowLeft:
		next = max(0, index-1)
	case dom.KeyArrowRight:
		next = min(length-1, index+1)
	case dom.KeyArrowUp:
		next = max(0, index-WeekLen)
	case dom.KeyArrowDown:
		next = min(length-1, index+WeekLen)
	default:
		return index, false
	}
	return next, true
}
