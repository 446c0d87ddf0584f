package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudyPlanStatus represents lifecycle phases for saved plans.
type StudyPlanStatus string

const (
	StudyPlanStatusDraft StudyPlanStatus = "DRAFT"
	StudyPlanStatusFinal StudyPlanStatus = "FINAL"
)

// StudyPlan captures a versioned weekly plan persisted for a student. Meta
// stores the generation outcome (relaxation level, unplaced remainders) as
// raw JSON so old versions remain readable after schema changes.
type StudyPlan struct {
	ID         string          `db:"id" json:"id"`
	UserID     string          `db:"user_id" json:"user_id"`
	WeekStart  time.Time       `db:"week_start" json:"week_start"`
	Version    int             `db:"version" json:"version"`
	Status     StudyPlanStatus `db:"status" json:"status"`
	Relaxation string          `db:"relaxation" json:"relaxation"`
	Meta       types.JSONText  `db:"meta" json:"meta"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// StudyPlanBlock is a concrete block inside a saved plan.
type StudyPlanBlock struct {
	ID          string    `db:"id" json:"id"`
	StudyPlanID string    `db:"study_plan_id" json:"study_plan_id"`
	PlanDate    time.Time `db:"plan_date" json:"plan_date"`
	TaskID      string    `db:"task_id" json:"task_id"`
	PartID      string    `db:"part_id" json:"part_id"`
	Title       string    `db:"title" json:"title"`
	Minutes     int       `db:"minutes" json:"minutes"`
	Reason      string    `db:"reason" json:"reason"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
