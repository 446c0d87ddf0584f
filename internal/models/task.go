package models

import "time"

// CourseTask is one schedulable unit of coursework owned by a student.
// HoursHint is an optional explicit effort estimate; SourceText feeds the
// word-count fallback when no hint is available.
type CourseTask struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Title      string    `db:"title" json:"title"`
	DueDate    time.Time `db:"due_date" json:"due_date"`
	HoursHint  float64   `db:"hours_hint" json:"hours_hint"`
	SourceText string    `db:"source_text" json:"source_text,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
