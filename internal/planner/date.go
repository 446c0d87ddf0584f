package planner

import "time"

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day or zone attached. The zero
// value is treated as "no date" throughout the package.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a normalized Date (overflow handled by the time package).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate reads an ISO-8601 date string (YYYY-MM-DD).
func ParseDate(raw string) (Date, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the weekday index with 0=Monday .. 6=Sunday.
func (d Date) Weekday() int {
	return (int(d.Time().Weekday()) + 6) % 7
}

// Before reports whether d falls before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d falls after other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()) / (24 * time.Hour))
}

// String renders the ISO form.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// endOfWeek returns the Sunday of the week containing d.
func endOfWeek(d Date) Date {
	return d.AddDays(6 - d.Weekday())
}

// startOfWeek returns the Monday of the week containing d.
func startOfWeek(d Date) Date {
	return d.AddDays(-d.Weekday())
}
