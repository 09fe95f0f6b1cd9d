// Package planner computes the set of daily time-of-day slots at which
// autonomous posts fire.
package planner

import "time"

// Daytime window over which additional slots are distributed
const (
	windowStartHour = 9
	windowEndHour   = 21
)

// Slot is a fixed time-of-day at which a daily post fires
type Slot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// At returns the slot's wall-clock time on the given day
func (s Slot) At(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), s.Hour, s.Minute, 0, 0, day.Location())
}

// ComputeSlots returns the ordered daily posting slots. The primary
// time is always the first slot. Additional slots (maxPostsPerDay - 1)
// are distributed evenly across the 09:00-21:00 window using integer
// division, minute fixed at 0. Deterministic for identical inputs.
func ComputeSlots(primaryHour, primaryMinute, maxPostsPerDay int) []Slot {
	slots := []Slot{{Hour: primaryHour, Minute: primaryMinute}}
	if maxPostsPerDay <= 1 {
		return slots
	}

	additional := maxPostsPerDay - 1
	windowHours := windowEndHour - windowStartHour

	for i := 1; i <= additional; i++ {
		hour := windowStartHour + i*windowHours/(additional+1)
		slots = append(slots, Slot{Hour: hour, Minute: 0})
	}

	return slots
}
