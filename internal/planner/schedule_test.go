package planner

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTask(id string, due Date, minutes ...int) TaskWithParts {
	task := TaskWithParts{TaskID: id, Title: "Task " + id, DueDate: due}
	for i, m := range minutes {
		task.Parts = append(task.Parts, Part{
			PartID:  id + "-p" + string(rune('1'+i)),
			Order:   i + 1,
			Title:   "Part " + string(rune('1'+i)),
			Minutes: m,
		})
	}
	return task
}

func TestScheduleEmptyTaskList(t *testing.T) {
	today := NewDate(2026, time.January, 5)

	result := Schedule(nil, Preferences{DailyHourCap: 2, WeeklyStudyDays: 5}, today)
	require.False(t, result.OK)
	assert.Equal(t, "No course tasks found — cannot generate a plan.", result.Message)

	// Tasks without a due date are dropped before scheduling.
	result = Schedule([]TaskWithParts{{TaskID: "t1"}}, Preferences{DailyHourCap: 2, WeeklyStudyDays: 5}, today)
	require.False(t, result.OK)
	assert.Equal(t, "No course tasks found — cannot generate a plan.", result.Message)
}

func TestScheduleFitsAtBaseLevel(t *testing.T) {
	today := NewDate(2026, time.January, 5) // Monday
	tasks := []TaskWithParts{
		testTask("t1", NewDate(2026, time.January, 7), 60, 60),
		testTask("t2", NewDate(2026, time.January, 9), 45),
	}
	prefs := Preferences{DailyHourCap: 2, WeeklyStudyDays: 5}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)
	assert.Equal(t, RelaxationNone, result.Relaxation)
	assert.Equal(t, today, result.WeekStart)
	assert.Empty(t, result.Unplaced)
	assertInvariants(t, tasks, prefs, result)
}

func TestScheduleRelaxationLadderOrder(t *testing.T) {
	today := NewDate(2026, time.January, 5) // Monday
	due := NewDate(2026, time.January, 11)

	// One study day a week at one hour cannot hold three hour-long parts;
	// opening the remaining weekdays can.
	tasks := []TaskWithParts{testTask("t1", due, 60, 60, 60)}
	prefs := Preferences{DailyHourCap: 1, WeeklyStudyDays: 1}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)
	assert.Equal(t, RelaxationExpandWeekDays, result.Relaxation)
	assertInvariants(t, tasks, prefs, result)
}

func TestScheduleOverridesAvoidDaysWhenNeeded(t *testing.T) {
	today := NewDate(2026, time.January, 5) // Monday
	due := NewDate(2026, time.January, 10)  // Saturday

	// Everything but Sunday is avoided, yet the work is due on Saturday:
	// only clearing the avoid set makes the plan feasible.
	tasks := []TaskWithParts{testTask("t1", due, 60, 60)}
	prefs := Preferences{
		DailyHourCap:    1,
		WeeklyStudyDays: 7,
		AvoidDays:       NewAvoidSet(0, 1, 2, 3, 4, 5),
	}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)
	assert.Equal(t, RelaxationAllowAvoidDays, result.Relaxation)
	assertInvariants(t, tasks, prefs, result)
}

func TestScheduleRaisesDailyCapAsLastResort(t *testing.T) {
	today := NewDate(2026, time.January, 5)

	// Three hours due today only fit once the cap is lifted to ten hours.
	tasks := []TaskWithParts{testTask("t1", today, 60, 60, 60)}
	prefs := Preferences{DailyHourCap: 1, WeeklyStudyDays: 7}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)
	assert.Equal(t, RelaxationMaxTenHours, result.Relaxation)
	assertInvariants(t, tasks, prefs, result)
}

func TestScheduleImpossibleReportsRemainders(t *testing.T) {
	today := NewDate(2026, time.January, 5)

	// Twelve hour-long parts due today exceed even the 10h emergency cap.
	minutes := make([]int, 12)
	for i := range minutes {
		minutes[i] = 60
	}
	tasks := []TaskWithParts{testTask("t1", today, minutes...)}

	result := Schedule(tasks, Preferences{DailyHourCap: 2, WeeklyStudyDays: 5}, today)
	require.False(t, result.OK)
	assert.Equal(t, RelaxationImpossible, result.Relaxation)
	require.Len(t, result.Unplaced, 2)
	assert.Equal(t, 60, result.Unplaced[0].MinutesRemaining)
	assert.Equal(t, today, result.Unplaced[0].DueDate)
}

func TestScheduleChunksOversizedParts(t *testing.T) {
	today := NewDate(2026, time.January, 5)
	due := NewDate(2026, time.January, 7)

	// A 90-minute part with a 60-minute daily cap cannot be placed whole:
	// it splits into a 60 chunk and a 30 continuation on different days.
	tasks := []TaskWithParts{{
		TaskID:  "t1",
		Title:   "Essay",
		DueDate: due,
		Parts:   []Part{{PartID: "p1", Order: 1, Title: "Draft", Minutes: 90}},
	}}
	prefs := Preferences{DailyHourCap: 1, WeeklyStudyDays: 7}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)

	var blocks []Block
	var blockDates []Date
	for _, day := range result.Days {
		for _, block := range day.Blocks {
			blocks = append(blocks, block)
			blockDates = append(blockDates, day.Date)
		}
	}
	require.Len(t, blocks, 2)
	assert.Equal(t, 60, blocks[0].Minutes)
	assert.Equal(t, "Draft", blocks[0].Title)
	assert.Equal(t, 30, blocks[1].Minutes)
	assert.True(t, strings.HasSuffix(blocks[1].Title, " (cont.)"))
	assert.NotEqual(t, blockDates[0], blockDates[1])
	assertInvariants(t, tasks, prefs, result)
}

func TestScheduleEarliestDeadlineFirst(t *testing.T) {
	today := NewDate(2026, time.January, 5)
	tasks := []TaskWithParts{
		testTask("late", NewDate(2026, time.January, 9), 60),
		testTask("soon", NewDate(2026, time.January, 6), 60),
	}
	prefs := Preferences{DailyHourCap: 1, WeeklyStudyDays: 7}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)
	require.NotEmpty(t, result.Days[0].Blocks)
	assert.Equal(t, "soon", result.Days[0].Blocks[0].TaskID, "the tighter deadline claims the first day")
}

func TestScheduleLaterPartMayLandOnEarlierDay(t *testing.T) {
	today := NewDate(2026, time.January, 5)

	// Parts are placed independently by first-fit within the due-date
	// window, so chronological order across a task's parts is not
	// guaranteed. Here a filler task leaves 30 free minutes on day one;
	// part one (60m) overflows to day two while part two (30m) backfills
	// day one.
	tasks := []TaskWithParts{
		testTask("filler", today, 30),
		testTask("essay", NewDate(2026, time.January, 7), 60, 30),
	}
	prefs := Preferences{DailyHourCap: 1, WeeklyStudyDays: 7}

	result := Schedule(tasks, prefs, today)
	require.True(t, result.OK)

	dates := make(map[string]Date)
	for _, day := range result.Days {
		for _, block := range day.Blocks {
			dates[block.PartID] = day.Date
		}
	}
	require.Contains(t, dates, "essay-p1")
	require.Contains(t, dates, "essay-p2")
	assert.True(t, dates["essay-p2"].Before(dates["essay-p1"]), "the second part backfills the earlier day")
	assertInvariants(t, tasks, prefs, result)
}

func TestSchedulePercentSums(t *testing.T) {
	today := NewDate(2026, time.January, 5)
	tasks := []TaskWithParts{
		testTask("t1", NewDate(2026, time.January, 9), 33, 33, 34),
		testTask("t2", NewDate(2026, time.January, 9), 50, 50, 50, 50),
	}

	result := Schedule(tasks, Preferences{DailyHourCap: 4, WeeklyStudyDays: 5}, today)
	require.Len(t, result.TaskSummaries, 2)
	for _, summary := range result.TaskSummaries {
		sum := 0.0
		for _, part := range summary.Parts {
			sum += part.Percent
		}
		assert.InDelta(t, 100.0, sum, 0.1*float64(len(summary.Parts)), "task %s", summary.TaskID)
	}
}

// assertInvariants checks conservation, capacity and due-date respect for a
// successful run.
func assertInvariants(t *testing.T, tasks []TaskWithParts, prefs Preferences, result Result) {
	t.Helper()

	dueByTask := make(map[string]Date, len(tasks))
	partMinutes := make(map[string]int)
	for _, task := range tasks {
		dueByTask[task.TaskID] = task.DueDate
		for _, part := range task.Parts {
			partMinutes[part.PartID] = part.Minutes
		}
	}

	unplacedByPart := make(map[string]bool, len(result.Unplaced))
	for _, remainder := range result.Unplaced {
		unplacedByPart[remainder.PartID] = true
	}

	placed := make(map[string]int)
	for _, day := range result.Days {
		used := 0
		for _, block := range day.Blocks {
			used += block.Minutes
			placed[block.PartID] += block.Minutes
			due := dueByTask[block.TaskID]
			assert.False(t, day.Date.After(due), "block for %s placed after its due date", block.TaskID)
		}
		assert.LessOrEqual(t, used, day.CapacityMinutes, "day %s over capacity", day.Date)
		assert.Equal(t, used, day.UsedMinutes)
	}

	for partID, minutes := range placed {
		if unplacedByPart[partID] {
			continue
		}
		assert.Equal(t, partMinutes[partID], minutes, "part %s not fully placed", partID)
	}
}
