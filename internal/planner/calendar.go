package planner

// BuildDays constructs the candidate day list across the planning horizon.
// The horizon runs from start (the run's "today") through end, and each day
// carries the daily cap as capacity only when its weekday is allowed for
// that week and the date is not before start. When start's weekday is
// avoided, the first candidate day shifts to start+1 and the first week's
// rotation begins there.
func BuildDays(dailyCapMinutes, weeklyStudyDays int, avoid AvoidSet, start, end Date) []Day {
	if end.Before(start) {
		return nil
	}

	first := start
	if avoid.Has(first.Weekday()) {
		first = first.AddDays(1)
	}
	if end.Before(first) {
		return nil
	}

	days := make([]Day, 0, first.DaysUntil(end)+1)
	weekStart := first
	for !weekStart.After(end) {
		weekEnd := endOfWeek(weekStart)
		if weekEnd.After(end) {
			weekEnd = end
		}

		rotation := weekStart.Weekday()
		if weekStart != first {
			rotation = 0
		}
		allowed := allowedWeekdaysForWeek(weeklyStudyDays, avoid, rotation)

		for d := weekStart; !d.After(weekEnd); d = d.AddDays(1) {
			capacity := 0
			if allowed[d.Weekday()] && !d.Before(start) {
				capacity = dailyCapMinutes
			}
			days = append(days, Day{Date: d, CapacityMinutes: capacity})
		}
		weekStart = weekEnd.AddDays(1)
	}
	return days
}

// allowedWeekdaysForWeek picks the weekdays open for study in one week. The
// rotation starts at startWeekday (today's weekday for the first week,
// Monday afterwards), skips avoided days, and keeps at most
// weeklyStudyDays entries, bounded by the number of non-avoided weekdays.
func allowedWeekdaysForWeek(weeklyStudyDays int, avoid AvoidSet, startWeekday int) map[int]bool {
	take := weeklyStudyDays
	if open := 7 - len(avoid); take > open {
		take = open
	}

	allowed := make(map[int]bool, take)
	for i := 0; i < 7 && len(allowed) < take; i++ {
		weekday := (startWeekday + i) % 7
		if avoid.Has(weekday) {
			continue
		}
		allowed[weekday] = true
	}
	return allowed
}
