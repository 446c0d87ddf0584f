package planner

import (
	"fmt"
	"math"
	"sort"
)

const (
	minChunkMinutes  = 30
	maxChunkMinutes  = 60
	relaxedCapHours  = 10
	contTitleSuffix  = " (cont.)"
	reasonWholePart  = "whole-part"
	reasonChunked    = "chunked"
	noTasksMessage   = "No course tasks found — cannot generate a plan."
	infeasibleReport = "schedule is infeasible even under the most relaxed constraints"
)

// Schedule assigns every task part to calendar days, trying four
// progressively looser constraint configurations until one fits. The run is
// a pure function of its inputs: today is passed explicitly and each level
// rebuilds its own day set, so no state leaks across attempts. When all
// levels fail, the result carries the unplaced remainders of the most
// relaxed attempt.
func Schedule(tasks []TaskWithParts, prefs Preferences, today Date) Result {
	scheduled := make([]TaskWithParts, 0, len(tasks))
	for _, task := range tasks {
		if task.DueDate.IsZero() {
			continue
		}
		scheduled = append(scheduled, task)
	}
	if len(scheduled) == 0 {
		return Result{OK: false, Message: noTasksMessage, WeekStart: startOfWeek(today)}
	}

	// Earliest deadline first; tasks sharing a due date keep their
	// insertion order.
	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].DueDate.Before(scheduled[j].DueDate)
	})

	end := endOfWeek(latestDueDate(scheduled))
	summaries := summarizeTasks(scheduled)
	prefs = prefs.Normalize()

	var lastDays []Day
	var lastUnplaced []UnplacedRemainder
	for _, level := range relaxationLadder(prefs) {
		days := BuildDays(level.capMinutes, level.weeklyStudyDays, level.avoid, today, end)
		unplaced := placeAll(scheduled, days, today)
		if len(unplaced) == 0 {
			return Result{
				OK:            true,
				Relaxation:    level.name,
				WeekStart:     startOfWeek(today),
				Days:          days,
				TaskSummaries: summaries,
			}
		}
		lastDays = days
		lastUnplaced = unplaced
	}

	return Result{
		OK:            false,
		Relaxation:    RelaxationImpossible,
		Message:       infeasibleReport,
		WeekStart:     startOfWeek(today),
		Days:          lastDays,
		TaskSummaries: summaries,
		Unplaced:      lastUnplaced,
	}
}

type relaxationStep struct {
	name            RelaxationLevel
	capMinutes      int
	weeklyStudyDays int
	avoid           AvoidSet
}

// relaxationLadder returns the four constraint configurations in the fixed
// order they must be attempted.
func relaxationLadder(prefs Preferences) []relaxationStep {
	expandedDays := 7 - len(prefs.AvoidDays)
	if expandedDays < prefs.WeeklyStudyDays {
		expandedDays = prefs.WeeklyStudyDays
	}
	if expandedDays > 7 {
		expandedDays = 7
	}

	return []relaxationStep{
		{RelaxationNone, prefs.DailyCapMinutes(), prefs.WeeklyStudyDays, prefs.AvoidDays},
		{RelaxationExpandWeekDays, prefs.DailyCapMinutes(), expandedDays, prefs.AvoidDays},
		{RelaxationAllowAvoidDays, prefs.DailyCapMinutes(), 7, AvoidSet{}},
		{RelaxationMaxTenHours, relaxedCapHours * 60, 7, AvoidSet{}},
	}
}

// placeAll runs one placement pass over freshly built days, mutating their
// used minutes and block lists, and returns every remainder that could not
// be fitted.
func placeAll(tasks []TaskWithParts, days []Day, start Date) []UnplacedRemainder {
	var unplaced []UnplacedRemainder
	for _, task := range tasks {
		parts := make([]Part, len(task.Parts))
		copy(parts, task.Parts)
		sort.SliceStable(parts, func(i, j int) bool { return parts[i].Order < parts[j].Order })

		for _, part := range parts {
			remaining := placePart(task, part, days, start)
			if remaining > 0 {
				unplaced = append(unplaced, UnplacedRemainder{
					TaskID:           task.TaskID,
					PartID:           part.PartID,
					Title:            part.Title,
					MinutesRemaining: remaining,
					DueDate:          task.DueDate,
				})
			}
		}
	}
	return unplaced
}

// placePart tries whole-part first-fit, then falls back to 60/30-minute
// chunking across multiple days. It returns the minutes left unplaced.
func placePart(task TaskWithParts, part Part, days []Day, start Date) int {
	available := availableDayIndexes(days, start, task.DueDate)
	if len(available) == 0 {
		return part.Minutes
	}

	// Whole-part first-fit: the earliest day with room for the full part.
	for _, idx := range available {
		day := &days[idx]
		if day.CapacityMinutes-day.UsedMinutes >= part.Minutes {
			appendBlock(day, task, part, part.Minutes, reasonWholePart, false)
			return 0
		}
	}

	// Chunked fallback. Chunks prefer 60 minutes when the leftover stays
	// placeable, otherwise 30; a 60 chunk that fits nowhere downgrades to
	// the minimal chunk before the part is declared stuck. Days drop out
	// once their free capacity falls below the minimal chunk.
	remaining := part.Minutes
	placedAny := false
	for remaining >= minChunkMinutes {
		chunk := chooseChunk(remaining)
		pos := firstFit(days, available, chunk)
		if pos < 0 && chunk > minChunkMinutes {
			chunk = minChunkMinutes
			pos = firstFit(days, available, chunk)
		}
		if pos < 0 {
			break
		}

		appendBlock(&days[available[pos]], task, part, chunk, reasonChunked, placedAny)
		placedAny = true
		remaining -= chunk

		filtered := available[:0]
		for _, idx := range available {
			if days[idx].CapacityMinutes-days[idx].UsedMinutes >= minChunkMinutes {
				filtered = append(filtered, idx)
			}
		}
		available = filtered
	}
	return remaining
}

// chooseChunk returns 60 when the leftover after subtracting it is either
// exactly zero or still a viable block, otherwise the 30-minute minimum.
func chooseChunk(remaining int) int {
	leftover := remaining - maxChunkMinutes
	if remaining >= maxChunkMinutes && (leftover == 0 || leftover >= minChunkMinutes) {
		return maxChunkMinutes
	}
	return minChunkMinutes
}

// firstFit returns the position within available of the earliest day with
// room for the chunk, or -1.
func firstFit(days []Day, available []int, chunk int) int {
	for pos, idx := range available {
		if days[idx].CapacityMinutes-days[idx].UsedMinutes >= chunk {
			return pos
		}
	}
	return -1
}

func availableDayIndexes(days []Day, start, due Date) []int {
	indexes := make([]int, 0, len(days))
	for idx := range days {
		day := days[idx]
		if day.CapacityMinutes <= 0 {
			continue
		}
		if day.Date.Before(start) || day.Date.After(due) {
			continue
		}
		indexes = append(indexes, idx)
	}
	return indexes
}

func appendBlock(day *Day, task TaskWithParts, part Part, minutes int, reason string, continuation bool) {
	title := part.Title
	if continuation {
		title += contTitleSuffix
	}
	day.Blocks = append(day.Blocks, Block{
		TaskID:  task.TaskID,
		PartID:  part.PartID,
		Title:   title,
		Minutes: minutes,
		Reason:  reason,
	})
	day.UsedMinutes += minutes
}

// summarizeTasks computes per-task totals and one-decimal percent shares.
func summarizeTasks(tasks []TaskWithParts) []TaskSummary {
	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		total := 0
		for _, part := range task.Parts {
			total += part.Minutes
		}
		summary := TaskSummary{
			TaskID:       task.TaskID,
			TaskTitle:    task.Title,
			DueDate:      task.DueDate,
			TotalMinutes: total,
			Parts:        make([]PartSummary, 0, len(task.Parts)),
		}
		for _, part := range task.Parts {
			percent := 0.0
			if total > 0 {
				percent = math.Round(float64(part.Minutes)/float64(total)*1000) / 10
			}
			summary.Parts = append(summary.Parts, PartSummary{
				PartID:  part.PartID,
				Order:   part.Order,
				Title:   part.Title,
				Minutes: part.Minutes,
				Percent: percent,
				Notes:   part.Notes,
			})
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func latestDueDate(tasks []TaskWithParts) Date {
	latest := tasks[0].DueDate
	for _, task := range tasks[1:] {
		if task.DueDate.After(latest) {
			latest = task.DueDate
		}
	}
	return latest
}

// DescribeUnplaced renders a short human-readable label for a remainder.
func DescribeUnplaced(r UnplacedRemainder) string {
	return fmt.Sprintf("%s: %dm left before %s", r.Title, r.MinutesRemaining, r.DueDate)
}
