package planner

// Part is an ordered, bounded-duration sub-unit of a task's work. Parts are
// immutable once produced by the splitter; the scheduler only reads Minutes
// and Order and emits new Block records.
type Part struct {
	PartID  string
	Order   int
	Title   string
	Minutes int
	Notes   string
}

// TaskWithParts is one schedulable unit of work.
type TaskWithParts struct {
	TaskID  string
	Title   string
	DueDate Date
	Parts   []Part
}

// Block is a concrete placement of some or all of a Part's minutes on one
// calendar day.
type Block struct {
	TaskID  string `json:"taskId"`
	PartID  string `json:"partId"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason"`
}

// Day is a candidate study day with a derived capacity. Day sets are built
// fresh per relaxation attempt and never shared across attempts.
type Day struct {
	Date            Date
	CapacityMinutes int
	UsedMinutes     int
	Blocks          []Block
}

// UnplacedRemainder records minutes of a part that could not be fitted into
// any day under a given relaxation level.
type UnplacedRemainder struct {
	TaskID           string
	PartID           string
	Title            string
	MinutesRemaining int
	DueDate          Date
}

// RelaxationLevel identifies one of the progressively looser constraint
// configurations tried by Schedule.
type RelaxationLevel string

const (
	RelaxationNone           RelaxationLevel = "none"
	RelaxationExpandWeekDays RelaxationLevel = "expand-days-per-week"
	RelaxationAllowAvoidDays RelaxationLevel = "allow-avoid-days"
	RelaxationMaxTenHours    RelaxationLevel = "max10h"
	RelaxationImpossible     RelaxationLevel = "impossible"
)

// PartSummary reports one part's share of its task.
type PartSummary struct {
	PartID  string
	Order   int
	Title   string
	Minutes int
	Percent float64
	Notes   string
}

// TaskSummary aggregates minute totals and per-part shares for one task.
type TaskSummary struct {
	TaskID       string
	TaskTitle    string
	DueDate      Date
	TotalMinutes int
	Parts        []PartSummary
}

// Result is the outcome of one scheduling run. Infeasibility is a normal
// terminal result, not an error: OK is false and Relaxation is
// RelaxationImpossible with the remainders from the most relaxed attempt.
type Result struct {
	OK            bool
	Relaxation    RelaxationLevel
	Message       string
	WeekStart     Date
	Days          []Day
	TaskSummaries []TaskSummary
	Unplaced      []UnplacedRemainder
}
