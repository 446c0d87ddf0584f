package planner

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

const (
	minPartMinutes    = 30
	maxPartMinutes    = 60
	targetPartMinutes = 45
	maxPartCount      = 6
)

// SuggestedPart carries externally proposed structure for one part. Only
// the title, order and notes are honored; minute values never come from
// suggestions.
type SuggestedPart struct {
	Order int
	Title string
	Notes string
}

// SplitParts turns a total minute estimate into an ordered list of parts of
// 30-60 minutes each. When a suggestion with at least two entries is given,
// its titles and notes are kept but the minutes are replaced by an equal
// split across the same entry count, so the part total always tracks the
// estimate rather than the suggestion's numeric claims. preferredCount, if
// positive and not larger than the computed count, overrides the number of
// parts.
func SplitParts(totalMinutes int, suggested []SuggestedPart, preferredCount int) []Part {
	if totalMinutes < 1 {
		totalMinutes = 1
	}

	if len(suggested) >= 2 {
		entries := suggested
		if len(entries) > maxPartCount {
			entries = entries[:maxPartCount]
		}
		values := distribute(totalMinutes, len(entries))
		parts := make([]Part, 0, len(entries))
		for i, entry := range entries {
			title := entry.Title
			if title == "" {
				title = defaultPartTitle(i + 1)
			}
			parts = append(parts, Part{
				PartID:  uuid.NewString(),
				Order:   i + 1,
				Title:   title,
				Minutes: values[i],
				Notes:   entry.Notes,
			})
		}
		return parts
	}

	values := equalSplit(totalMinutes, preferredCount)
	parts := make([]Part, 0, len(values))
	for i, minutes := range values {
		parts = append(parts, Part{
			PartID:  uuid.NewString(),
			Order:   i + 1,
			Title:   defaultPartTitle(i + 1),
			Minutes: minutes,
		})
	}
	return parts
}

// equalSplit produces the deterministic 30-60 minute breakdown. Residual
// chunks under 30 minutes left over from peeling oversized parts are
// dropped, so the returned total may be slightly below totalMinutes.
func equalSplit(totalMinutes, preferredCount int) []int {
	if totalMinutes < 1 {
		totalMinutes = 1
	}
	if totalMinutes < maxPartMinutes {
		single := totalMinutes
		if single < minPartMinutes {
			single = minPartMinutes
		}
		return []int{single}
	}

	partCount := int(math.Round(float64(totalMinutes) / float64(targetPartMinutes)))
	partCount = clampInt(partCount, 2, maxPartCount)
	if preferredCount > 0 && preferredCount <= partCount {
		partCount = clampInt(preferredCount, 2, maxPartCount)
	}

	values := distribute(totalMinutes, partCount)

	adjusted := make([]int, 0, len(values))
	for _, value := range values {
		if value < minPartMinutes {
			adjusted = append(adjusted, minPartMinutes)
			continue
		}
		for value > maxPartMinutes {
			adjusted = append(adjusted, maxPartMinutes)
			value -= maxPartMinutes
		}
		if value >= minPartMinutes {
			adjusted = append(adjusted, value)
		}
	}

	if len(adjusted) > maxPartCount {
		adjusted = adjusted[:maxPartCount]
	}
	return adjusted
}

// distribute spreads totalMinutes evenly across count entries, handing the
// remainder out one minute at a time to the last entries.
func distribute(totalMinutes, count int) []int {
	base := totalMinutes / count
	remainder := totalMinutes % count
	values := make([]int, count)
	for i := range values {
		values[i] = base
		if i >= count-remainder {
			values[i]++
		}
	}
	return values
}

func defaultPartTitle(n int) string {
	return fmt.Sprintf("Part %d", n)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
