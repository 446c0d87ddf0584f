package planner

import (
	"strconv"
	"strings"
)

// AvoidSet holds weekday indices (0=Monday .. 6=Sunday) the user prefers
// not to study on.
type AvoidSet map[int]struct{}

// Preferences captures the user's time budget. Construct via the Parse
// helpers or literal values, then call Normalize before scheduling.
type Preferences struct {
	DailyHourCap    int
	WeeklyStudyDays int
	AvoidDays       AvoidSet
}

var weekdayNames = map[string]int{
	"MON": 0, "MONDAY": 0,
	"TUE": 1, "TUES": 1, "TUESDAY": 1,
	"WED": 2, "WEDNESDAY": 2,
	"THU": 3, "THUR": 3, "THURS": 3, "THURSDAY": 3,
	"FRI": 4, "FRIDAY": 4,
	"SAT": 5, "SATURDAY": 5,
	"SUN": 6, "SUNDAY": 6,
}

// ParseWeekday resolves a weekday name ("Mon", "monday") or numeric string
// to a 0=Monday index. Numeric values wrap mod 7.
func ParseWeekday(raw string) (int, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, false
	}
	if idx, ok := weekdayNames[trimmed]; ok {
		return idx, true
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return ((value % 7) + 7) % 7, true
}

// NewAvoidSet normalizes integer weekday indices mod 7.
func NewAvoidSet(days ...int) AvoidSet {
	set := make(AvoidSet, len(days))
	for _, day := range days {
		set[((day%7)+7)%7] = struct{}{}
	}
	return set
}

// ParseAvoidDays builds an AvoidSet from mixed weekday names and numeric
// strings. Entries that resolve to nothing are dropped.
func ParseAvoidDays(raw []string) AvoidSet {
	set := make(AvoidSet, len(raw))
	for _, entry := range raw {
		if idx, ok := ParseWeekday(entry); ok {
			set[idx] = struct{}{}
		}
	}
	return set
}

// Has reports whether the weekday index is avoided.
func (s AvoidSet) Has(weekday int) bool {
	_, ok := s[weekday]
	return ok
}

// Values returns the avoided indices in ascending order.
func (s AvoidSet) Values() []int {
	values := make([]int, 0, len(s))
	for day := 0; day < 7; day++ {
		if s.Has(day) {
			values = append(values, day)
		}
	}
	return values
}

// Normalize clamps the budget fields into their valid ranges.
func (p Preferences) Normalize() Preferences {
	if p.DailyHourCap < 1 {
		p.DailyHourCap = 1
	}
	if p.DailyHourCap > 24 {
		p.DailyHourCap = 24
	}
	if p.WeeklyStudyDays < 1 {
		p.WeeklyStudyDays = 1
	}
	if p.WeeklyStudyDays > 7 {
		p.WeeklyStudyDays = 7
	}
	if p.AvoidDays == nil {
		p.AvoidDays = AvoidSet{}
	}
	return p
}

// DailyCapMinutes converts the hour cap to minutes.
func (p Preferences) DailyCapMinutes() int {
	return p.DailyHourCap * 60
}
