package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]int{
		"Mon":      0,
		"monday":   0,
		"TUE":      1,
		"Sunday":   6,
		"sun":      6,
		"0":        0,
		"6":        6,
		"7":        0,
		"-1":       6,
		" Friday ": 4,
	}
	for raw, want := range cases {
		got, ok := ParseWeekday(raw)
		require.True(t, ok, "input %q", raw)
		assert.Equal(t, want, got, "input %q", raw)
	}

	_, ok := ParseWeekday("someday")
	assert.False(t, ok)
	_, ok = ParseWeekday("")
	assert.False(t, ok)
}

func TestParseAvoidDaysMixedInputs(t *testing.T) {
	set := ParseAvoidDays([]string{"Sat", "6", "not-a-day", "8"})
	assert.Equal(t, []int{1, 5, 6}, set.Values())
}

func TestPreferencesNormalize(t *testing.T) {
	prefs := Preferences{DailyHourCap: 0, WeeklyStudyDays: 9}.Normalize()
	assert.Equal(t, 1, prefs.DailyHourCap)
	assert.Equal(t, 7, prefs.WeeklyStudyDays)
	assert.NotNil(t, prefs.AvoidDays)

	prefs = Preferences{DailyHourCap: 30, WeeklyStudyDays: 0}.Normalize()
	assert.Equal(t, 24, prefs.DailyHourCap)
	assert.Equal(t, 1, prefs.WeeklyStudyDays)
	assert.Equal(t, 1440, prefs.DailyCapMinutes())
}
