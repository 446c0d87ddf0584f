package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// StudyPreference stores a student's weekly time budget. AvoidDays is a
// JSON array of weekday names or indices as supplied by the client; it is
// normalized only when a plan is generated.
type StudyPreference struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	DailyHourCap    int            `db:"daily_hour_cap" json:"daily_hour_cap"`
	WeeklyStudyDays int            `db:"weekly_study_days" json:"weekly_study_days"`
	AvoidDays       types.JSONText `db:"avoid_days" json:"avoid_days"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}
