package planner

import "strings"

const (
	wordsPerReadMinute  = 200
	minHeuristicMinutes = 180
	maxHeuristicMinutes = 480
	fallbackMinutes     = 360
)

// EstimateMinutes derives a total effort estimate for a task. Signals are
// tried in priority order: an explicit hour count from the caller, an
// externally suggested hour count, a word-count heuristic over the source
// text, and finally a fixed six-hour fallback. The result is always a
// positive minute count; no input combination fails.
func EstimateMinutes(hoursHint, suggestedHours float64, sourceText string) int {
	if hoursHint > 0 {
		return hoursToMinutes(hoursHint)
	}
	if suggestedHours > 0 {
		return hoursToMinutes(suggestedHours)
	}
	if words := len(strings.Fields(sourceText)); words > 0 {
		// Reading runs at ~200 words/minute and working through the
		// material costs roughly twice the read time again.
		readMinutes := words / wordsPerReadMinute
		total := readMinutes * 3
		if total < minHeuristicMinutes {
			total = minHeuristicMinutes
		}
		if total > maxHeuristicMinutes {
			total = maxHeuristicMinutes
		}
		return total
	}
	return fallbackMinutes
}

// hoursToMinutes converts a positive hour count, flooring at one minute so
// sub-minute hints cannot truncate the estimate to zero.
func hoursToMinutes(hours float64) int {
	minutes := int(hours * 60)
	if minutes < 1 {
		return 1
	}
	return minutes
}
