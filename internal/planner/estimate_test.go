package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateMinutesExplicitHoursWin(t *testing.T) {
	assert.Equal(t, 120, EstimateMinutes(2, 8, "some text here"))
	assert.Equal(t, 90, EstimateMinutes(1.5, 0, ""))
}

func TestEstimateMinutesSuggestedHoursSecond(t *testing.T) {
	assert.Equal(t, 240, EstimateMinutes(0, 4, "ignored words"))
	assert.Equal(t, 30, EstimateMinutes(-1, 0.5, ""))
}

func TestEstimateMinutesWordCountHeuristic(t *testing.T) {
	short := strings.Repeat("word ", 600)
	assert.Equal(t, 180, EstimateMinutes(0, 0, short), "short texts clamp to the 3h floor")

	long := strings.Repeat("word ", 40000)
	assert.Equal(t, 480, EstimateMinutes(0, 0, long), "long texts clamp to the 8h ceiling")

	medium := strings.Repeat("word ", 20000)
	assert.Equal(t, 300, EstimateMinutes(0, 0, medium))
}

func TestEstimateMinutesSubMinuteHintsStayPositive(t *testing.T) {
	assert.Equal(t, 1, EstimateMinutes(0.005, 0, ""), "tiny hour hints floor at one minute")
	assert.Equal(t, 1, EstimateMinutes(0, 0.005, ""))
	assert.Equal(t, 1, EstimateMinutes(0.016, 0, ""), "just under a minute still floors")
}

func TestEstimateMinutesFallback(t *testing.T) {
	assert.Equal(t, 360, EstimateMinutes(0, 0, ""))
	assert.Equal(t, 360, EstimateMinutes(0, 0, "   "))
}
