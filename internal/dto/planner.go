package dto

// SuggestedPartInput is one entry of a client-supplied part breakdown. Only
// the structure is honored; minutes are always recomputed from the estimate.
type SuggestedPartInput struct {
	Order int    `json:"order"`
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// TaskSuggestion optionally refines how a single task is split. Suggestions
// carry no validate tags on purpose: malformed or unmatched entries are
// ignored and the deterministic estimator and splitter take over.
type TaskSuggestion struct {
	TaskID         string               `json:"taskId"`
	SuggestedHours float64              `json:"suggestedHours"`
	Parts          []SuggestedPartInput `json:"parts"`
	PreferredCount int                  `json:"preferredCount"`
}

// PreferencesInput overrides the stored study preferences for one run.
type PreferencesInput struct {
	DailyHourCap    int      `json:"dailyHourCap" validate:"omitempty,min=1,max=24"`
	WeeklyStudyDays int      `json:"weeklyStudyDays" validate:"omitempty,min=1,max=7"`
	AvoidDays       []string `json:"avoidDays"`
}

// GeneratePlanRequest instructs the planner to build a weekly proposal from
// the caller's open tasks.
type GeneratePlanRequest struct {
	Today       string            `json:"today" validate:"omitempty,datetime=2006-01-02"`
	Preferences *PreferencesInput `json:"preferences" validate:"omitempty"`
	Suggestions []TaskSuggestion  `json:"suggestions" validate:"omitempty,dive"`
}

// BlockItem is one placed block of a planned day.
type BlockItem struct {
	TaskID  string `json:"taskId"`
	PartID  string `json:"partId"`
	Title   string `json:"title"`
	Minutes int    `json:"minutes"`
	Reason  string `json:"reason"`
}

// PlanDay is a single calendar day of the proposal.
type PlanDay struct {
	Date            string      `json:"date"`
	CapacityMinutes int         `json:"capacityMinutes"`
	UsedMinutes     int         `json:"usedMinutes"`
	Blocks          []BlockItem `json:"blocks"`
}

// PartSummaryItem describes one part's share of its task.
type PartSummaryItem struct {
	PartID  string  `json:"partId"`
	Order   int     `json:"order"`
	Title   string  `json:"title"`
	Minutes int     `json:"minutes"`
	Percent float64 `json:"percent"`
	Notes   string  `json:"notes,omitempty"`
}

// TaskSummaryItem aggregates the parts generated for one task.
type TaskSummaryItem struct {
	TaskID       string            `json:"taskId"`
	Title        string            `json:"title"`
	DueDate      string            `json:"dueDate"`
	TotalMinutes int               `json:"totalMinutes"`
	Parts        []PartSummaryItem `json:"parts"`
}

// UnplacedPartItem reports work that did not fit even after relaxation.
type UnplacedPartItem struct {
	TaskID           string `json:"taskId"`
	PartID           string `json:"partId"`
	Title            string `json:"title"`
	MinutesRemaining int    `json:"minutesRemaining"`
	DueDate          string `json:"dueDate"`
}

// GeneratePlanResponse returns the built proposal. OK false with a message
// means the inputs admit no plan; it is not an error.
type GeneratePlanResponse struct {
	ProposalID string             `json:"proposalId,omitempty"`
	OK         bool               `json:"ok"`
	Relaxation string             `json:"relaxation,omitempty"`
	Message    string             `json:"message,omitempty"`
	WeekStart  string             `json:"weekStart"`
	Days       []PlanDay          `json:"days,omitempty"`
	Tasks      []TaskSummaryItem  `json:"tasks,omitempty"`
	Unplaced   []UnplacedPartItem `json:"unplaced,omitempty"`
}

// SavePlanRequest persists a generated proposal as a plan version.
type SavePlanRequest struct {
	ProposalID string `json:"proposalId" validate:"required"`
	Finalize   bool   `json:"finalize"`
}

// PlanListQuery filters saved plans by week.
type PlanListQuery struct {
	WeekStart string `form:"weekStart" json:"weekStart"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
}

// TaskInput creates or updates a course task.
type TaskInput struct {
	Title      string  `json:"title" validate:"required"`
	DueDate    string  `json:"dueDate" validate:"required,datetime=2006-01-02"`
	HoursHint  float64 `json:"hoursHint" validate:"omitempty,gt=0"`
	SourceText string  `json:"sourceText"`
}

// PreferencesRequest stores the caller's standing study preferences.
type PreferencesRequest struct {
	DailyHourCap    int      `json:"dailyHourCap" validate:"required,min=1,max=24"`
	WeeklyStudyDays int      `json:"weeklyStudyDays" validate:"required,min=1,max=7"`
	AvoidDays       []string `json:"avoidDays" validate:"omitempty,max=7"`
}

// ExportPlanRequest queues an asynchronous export of a saved plan.
type ExportPlanRequest struct {
	PlanID string `json:"planId" validate:"required"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse reports the state of a queued export.
type ExportJobResponse struct {
	JobID     string  `json:"jobId"`
	Status    string  `json:"status"`
	Progress  int     `json:"progress"`
	ResultURL *string `json:"resultUrl,omitempty"`
	Error     *string `json:"error,omitempty"`
}
