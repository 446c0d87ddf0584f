package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPartsShortTotalYieldsSinglePart(t *testing.T) {
	parts := SplitParts(40, nil, 0)
	require.Len(t, parts, 1)
	assert.Equal(t, 40, parts[0].Minutes)
	assert.Equal(t, 1, parts[0].Order)
	assert.Equal(t, "Part 1", parts[0].Title)

	parts = SplitParts(10, nil, 0)
	require.Len(t, parts, 1)
	assert.Equal(t, 30, parts[0].Minutes, "tiny totals are raised to the minimum block")
}

func TestSplitPartsEqualSplit(t *testing.T) {
	parts := SplitParts(200, nil, 0)
	require.Len(t, parts, 4)
	for _, part := range parts {
		assert.Equal(t, 50, part.Minutes)
	}
}

func TestSplitPartsRemainderGoesToLastParts(t *testing.T) {
	parts := SplitParts(130, nil, 0)
	require.Len(t, parts, 3)
	assert.Equal(t, []int{43, 43, 44}, partMinutes(parts))
}

func TestSplitPartsPreferredCountOverrides(t *testing.T) {
	// Two preferred parts of 100 minutes each get peeled back into the
	// 30-60 range, so the preference shapes rather than dictates the count.
	parts := SplitParts(200, nil, 2)
	assert.Equal(t, []int{60, 40, 60, 40}, partMinutes(parts))

	parts = SplitParts(120, nil, 2)
	assert.Equal(t, []int{60, 60}, partMinutes(parts))
}

func TestSplitPartsBounds(t *testing.T) {
	for _, total := range []int{60, 75, 100, 147, 200, 250, 300, 359} {
		for _, part := range SplitParts(total, nil, 0) {
			assert.GreaterOrEqual(t, part.Minutes, 30, "total=%d", total)
			assert.LessOrEqual(t, part.Minutes, 60, "total=%d", total)
		}
	}
}

func TestSplitPartsDropsSmallResidual(t *testing.T) {
	// 400 minutes across the capped six parts forces 60-minute peeling;
	// the sub-30 residues are dropped, so the split total undershoots.
	parts := SplitParts(400, nil, 0)
	require.Len(t, parts, 6)
	total := 0
	for _, part := range parts {
		assert.Equal(t, 60, part.Minutes)
		total += part.Minutes
	}
	assert.Equal(t, 360, total)
}

func TestSplitPartsCapsPartCount(t *testing.T) {
	parts := SplitParts(1000, nil, 0)
	assert.LessOrEqual(t, len(parts), 6)
}

func TestSplitPartsSuggestionKeepsStructureNotMinutes(t *testing.T) {
	suggested := []SuggestedPart{
		{Order: 1, Title: "Read chapter", Notes: "focus on proofs"},
		{Order: 2, Title: "Exercises"},
		{Order: 3, Title: "Review"},
	}
	parts := SplitParts(200, suggested, 0)
	require.Len(t, parts, 3)
	assert.Equal(t, "Read chapter", parts[0].Title)
	assert.Equal(t, "focus on proofs", parts[0].Notes)
	assert.Equal(t, "Exercises", parts[1].Title)
	assert.Equal(t, []int{66, 67, 67}, partMinutes(parts), "minutes come from the equal split, never the suggestion")
}

func TestSplitPartsSingleSuggestionFallsBackToEqualSplit(t *testing.T) {
	parts := SplitParts(200, []SuggestedPart{{Order: 1, Title: "Everything"}}, 0)
	require.Len(t, parts, 4)
	assert.Equal(t, "Part 1", parts[0].Title)
}

func partMinutes(parts []Part) []int {
	values := make([]int, len(parts))
	for i, part := range parts {
		values[i] = part.Minutes
	}
	return values
}
